package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// placeholderRe matches {slot} placeholders in command and confirm templates.
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Load reads and compiles a catalog document from disk. Any validation
// failure - not just the first - is reported through a single *CatalogError.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Path: path, Issues: []string{err.Error()}}
	}
	return parse(data, path)
}

// Parse compiles a catalog document held in memory. Used by tests and by
// callers that fetch the document from somewhere other than the filesystem.
func Parse(data []byte) (*Snapshot, error) {
	return parse(data, "inline")
}

func parse(data []byte, source string) (*Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CatalogError{Path: source, Issues: []string{fmt.Sprintf("invalid YAML: %v", err)}}
	}
	return compile(&doc, source)
}

// compile validates the document and builds the immutable snapshot.
func compile(doc *Document, source string) (*Snapshot, error) {
	var issues []string

	if strings.TrimSpace(doc.Version) == "" {
		issues = append(issues, "version is required")
	}
	if len(doc.Intents) == 0 {
		issues = append(issues, "catalog declares no intents")
	}

	snap := &Snapshot{
		version:  doc.Version,
		locales:  doc.Locales,
		byID:     make(map[string]*CompiledIntent, len(doc.Intents)),
		source:   source,
		loadedAt: time.Now().UTC(),
	}

	seen := make(map[string]bool, len(doc.Intents))
	for i, in := range doc.Intents {
		label := in.ID
		if label == "" {
			label = fmt.Sprintf("intents[%d]", i)
			issues = append(issues, fmt.Sprintf("%s: id is required", label))
		}
		if in.ID != "" && seen[in.ID] {
			issues = append(issues, fmt.Sprintf("%s: duplicate intent id", label))
			continue
		}
		seen[in.ID] = true

		issues = append(issues, validateIntent(label, &in)...)

		ci := &CompiledIntent{Intent: in, Position: i}
		for _, p := range in.Phrases {
			if norm := Normalize(p); norm != "" {
				ci.normPhrases = append(ci.normPhrases, norm)
			}
		}
		if in.Pattern != "" {
			re, err := compilePattern(in.Pattern)
			if err != nil {
				issues = append(issues, fmt.Sprintf("%s: invalid pattern: %v", label, err))
			} else {
				ci.pattern = re
			}
		}

		snap.intents = append(snap.intents, ci)
		if in.ID != "" {
			snap.byID[in.ID] = ci
		}
	}

	if len(issues) > 0 {
		return nil, &CatalogError{Path: source, Issues: issues}
	}
	return snap, nil
}

// compilePattern anchors the extraction pattern so it must consume the whole
// utterance. Partial matches never produce a candidate.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// validateIntent checks one intent's internal consistency.
func validateIntent(label string, in *Intent) []string {
	var issues []string

	if len(in.Phrases) == 0 && in.Pattern == "" {
		issues = append(issues, fmt.Sprintf("%s: needs at least one phrase or a pattern", label))
	}
	if strings.TrimSpace(in.CommandTemplate) == "" {
		issues = append(issues, fmt.Sprintf("%s: command template is required", label))
	}

	// Every placeholder must be backed by a schema entry; an undeclared
	// placeholder would let raw utterance text leak into the command.
	for _, tpl := range []struct{ name, text string }{
		{"command", in.CommandTemplate},
		{"confirm", in.ConfirmTemplate},
	} {
		for _, m := range placeholderRe.FindAllStringSubmatch(tpl.text, -1) {
			if _, ok := in.ArgsSchema[m[1]]; !ok {
				issues = append(issues, fmt.Sprintf(
					"%s: %s template references undeclared slot {%s}", label, tpl.name, m[1]))
			}
		}
	}

	for slot, spec := range in.ArgsSchema {
		switch spec.Kind() {
		case TypeString, TypeInt:
		case TypeEnum:
			if len(spec.Values) == 0 {
				issues = append(issues, fmt.Sprintf(
					"%s: slot %q is enum but declares no values", label, slot))
			}
		default:
			issues = append(issues, fmt.Sprintf(
				"%s: slot %q has unknown type %q", label, slot, spec.Type))
		}
		if spec.Default != nil {
			if _, err := spec.CoerceDefault(spec.Default); err != nil {
				issues = append(issues, fmt.Sprintf(
					"%s: slot %q default: %v", label, slot, err))
			}
		}
	}

	return issues
}
