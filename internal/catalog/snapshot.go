package catalog

import (
	"regexp"
	"time"
)

// CompiledIntent is an Intent with its matching machinery precomputed:
// normalized phrases and the anchored extraction pattern. Compilation
// happens once at load; CompiledIntent is never mutated afterwards.
type CompiledIntent struct {
	Intent

	// Position is the intent's index in catalog order (final tie-break).
	Position int

	normPhrases []string
	pattern     *regexp.Regexp
}

// NormalizedPhrases returns the intent's trigger phrases after Normalize.
func (ci *CompiledIntent) NormalizedPhrases() []string {
	return ci.normPhrases
}

// ExtractionPattern returns the compiled anchored pattern, or nil when the
// intent matches by phrase only.
func (ci *CompiledIntent) ExtractionPattern() *regexp.Regexp {
	return ci.pattern
}

// PrefersLocale reports whether this intent's phrasing belongs to the given
// locale. Intents that declare no locale priority are locale-neutral and
// match any preference.
func (ci *CompiledIntent) PrefersLocale(locale string) bool {
	if locale == "" || len(ci.LocalePriority) == 0 {
		return true
	}
	for _, l := range ci.LocalePriority {
		if l == locale {
			return true
		}
	}
	return false
}

// Snapshot is an immutable compiled catalog. A Router holds one Snapshot for
// the duration of a routing call; reload builds a fresh Snapshot and swaps
// the active reference, so in-flight calls keep a consistent view.
type Snapshot struct {
	version  string
	locales  []string
	intents  []*CompiledIntent
	byID     map[string]*CompiledIntent
	source   string
	loadedAt time.Time
}

// Version returns the catalog document version.
func (s *Snapshot) Version() string { return s.version }

// Locales returns the catalog's declared locales, most preferred first.
func (s *Snapshot) Locales() []string { return s.locales }

// Intents returns every compiled intent in catalog order. Callers must not
// mutate the returned slice.
func (s *Snapshot) Intents() []*CompiledIntent { return s.intents }

// Lookup resolves an intent by id, returning nil when absent.
func (s *Snapshot) Lookup(id string) *CompiledIntent { return s.byID[id] }

// Info summarizes the snapshot for display.
func (s *Snapshot) Info() Info {
	return Info{
		Version:  s.version,
		Locales:  s.locales,
		Intents:  len(s.intents),
		Source:   s.source,
		LoadedAt: s.loadedAt,
	}
}
