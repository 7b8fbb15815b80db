// Package router turns natural-language utterances into executable route
// decisions. The pipeline is matcher -> slot extractor -> safety gate ->
// confidence policy; its output is an immutable Decision that downstream
// code (CLI, executor, audit) consumes without re-deriving any of the
// routing logic.
package router

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Sheldon-92/personalmanager/internal/catalog"
)

// MatchKind distinguishes how a candidate matched the utterance.
type MatchKind string

const (
	// MatchExactPhrase is a literal trigger-phrase hit. Full confidence.
	MatchExactPhrase MatchKind = "exact-phrase"

	// MatchPattern is a structured extraction-pattern hit. Confidence scales
	// with how much of the utterance the pattern's literal text accounts for.
	MatchPattern MatchKind = "pattern"
)

// DefaultMinConfidence is the floor below which candidates are discarded.
const DefaultMinConfidence = 0.1

// Pattern-match confidence model: a structured match starts at the base and
// earns up to span extra for the fraction of the utterance made of literal
// (non-captured) text. A pattern that is nearly all capture groups scores
// close to the bare base; a mostly-literal one approaches base+span. Pattern
// confidence never reaches the 1.0 reserved for exact phrases.
const (
	patternBase          = 0.6
	patternSpan          = 0.3
	maxPatternConfidence = 0.95
)

// Candidate is one scored interpretation of an utterance.
type Candidate struct {
	Intent     *catalog.CompiledIntent
	Confidence float64
	Kind       MatchKind

	// RawSlots holds the pattern's named captures, untouched. Only set for
	// MatchPattern; trimming and coercion happen in slot extraction.
	RawSlots map[string]string

	preferred bool // intent's phrasing belongs to the caller's locale
}

// Matcher scores utterances against a catalog snapshot. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	// MinConfidence discards candidates scoring below the floor, so callers
	// never see near-noise interpretations.
	MinConfidence float64
}

// NewMatcher returns a matcher with the given confidence floor. A
// non-positive floor falls back to DefaultMinConfidence.
func NewMatcher(minConfidence float64) *Matcher {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Matcher{MinConfidence: minConfidence}
}

// Match scores the utterance against every intent in the snapshot and
// returns the surviving candidates, best first. Ordering is total: exact
// phrases outrank pattern matches regardless of score, then higher
// confidence, then intents phrased for the preferred locale, then catalog
// order. An empty utterance or empty catalog yields no candidates.
func (m *Matcher) Match(utterance string, snap *catalog.Snapshot, locale string) []Candidate {
	norm := catalog.Normalize(utterance)
	if norm == "" || snap == nil {
		return nil
	}
	trimmed := strings.TrimSpace(utterance)

	var out []Candidate
	for _, ci := range snap.Intents() {
		c, ok := m.score(norm, trimmed, ci)
		if !ok {
			continue
		}
		c.preferred = ci.PrefersLocale(locale)
		out = append(out, c)
	}

	// Stable sort keeps catalog order as the final tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind == MatchExactPhrase
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.preferred != b.preferred {
			return a.preferred
		}
		return false
	})
	return out
}

// score tests one intent against the utterance. Literal phrases are checked
// first against the normalized form; only if none hit is the extraction
// pattern tried against the raw (trimmed) utterance, so captures preserve
// the user's original text.
func (m *Matcher) score(norm, trimmed string, ci *catalog.CompiledIntent) (Candidate, bool) {
	for _, p := range ci.NormalizedPhrases() {
		if p == "" {
			continue
		}
		if norm == p || strings.Contains(norm, p) {
			return Candidate{Intent: ci, Confidence: 1.0, Kind: MatchExactPhrase}, true
		}
	}

	re := ci.ExtractionPattern()
	if re == nil {
		return Candidate{}, false
	}
	groups := re.FindStringSubmatch(trimmed)
	if groups == nil {
		return Candidate{}, false
	}

	raw := make(map[string]string)
	captured := 0
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		raw[name] = groups[i]
		captured += utf8.RuneCountInString(groups[i])
	}

	conf := patternConfidence(utf8.RuneCountInString(trimmed), captured)
	if conf < m.MinConfidence {
		return Candidate{}, false
	}
	return Candidate{Intent: ci, Confidence: conf, Kind: MatchPattern, RawSlots: raw}, true
}

// patternConfidence scores a structured match by the share of the utterance
// the pattern's literal text covers: base + span * literalFraction.
func patternConfidence(total, captured int) float64 {
	if total <= 0 {
		return patternBase
	}
	literal := float64(total-captured) / float64(total)
	if literal < 0 {
		literal = 0
	}
	if literal > 1 {
		literal = 1
	}
	conf := patternBase + patternSpan*literal
	if conf > maxPatternConfidence {
		conf = maxPatternConfidence
	}
	return conf
}
