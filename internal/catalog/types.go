// Package catalog loads, validates, and serves the intent catalog: the
// versioned set of recognizable intents that maps user phrasing to
// parameterized commands. The catalog is read from a YAML document, compiled
// into an immutable Snapshot, and swapped atomically on reload - routing code
// never observes a partially updated catalog.
package catalog

import (
	"time"
)

// Slot value types accepted by an ArgSpec.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeEnum   = "enum"
)

// Document is the on-disk catalog format. Field order matters for intents:
// catalog order is the final tie-break when ranking match candidates.
type Document struct {
	// Version identifies the catalog revision (free-form, must be non-empty).
	Version string `yaml:"version" json:"version"`

	// Locales lists the locales this catalog covers, most preferred first.
	Locales []string `yaml:"locale" json:"locale"`

	// Intents are the recognizable intent definitions, in priority order.
	Intents []Intent `yaml:"intents" json:"intents"`
}

// Intent is one catalog entry: the phrasing that triggers it, the command
// template it renders, and the argument schema that constrains substitution.
type Intent struct {
	// ID uniquely identifies the intent within the catalog.
	ID string `yaml:"id" json:"id"`

	// Phrases are literal trigger strings. A normalized utterance equal to
	// (or containing) a normalized phrase matches with full confidence.
	Phrases []string `yaml:"phrases" json:"phrases,omitempty"`

	// Pattern is an optional extraction pattern with named capture groups,
	// matched against the full utterance. Compiled anchored at load time.
	Pattern string `yaml:"pattern" json:"pattern,omitempty"`

	// CommandTemplate is the command to render, with {slot} placeholders.
	// Every placeholder must be declared in ArgsSchema.
	CommandTemplate string `yaml:"command" json:"command"`

	// ArgsSchema declares the slots that may be substituted into the
	// command and confirmation templates.
	ArgsSchema map[string]ArgSpec `yaml:"args" json:"args,omitempty"`

	// ConfirmTemplate is the confirmation prompt shown when the confidence
	// policy demands confirmation. Placeholders follow CommandTemplate rules.
	ConfirmTemplate string `yaml:"confirm" json:"confirm,omitempty"`

	// LocalePriority lists the locales this intent's phrasing belongs to,
	// most natural first. Empty means locale-neutral.
	LocalePriority []string `yaml:"locales" json:"locales,omitempty"`
}

// ArgSpec constrains one named slot.
type ArgSpec struct {
	// Type is one of "string", "int", or "enum". Empty defaults to "string".
	Type string `yaml:"type" json:"type"`

	// Required slots must be captured by the extraction pattern (or carry a
	// Default); a missing required slot fails slot validation.
	Required bool `yaml:"required" json:"required"`

	// Default is substituted when the slot is not captured. It must pass
	// the slot's own type coercion.
	Default interface{} `yaml:"default" json:"default,omitempty"`

	// Values enumerates the permitted values for enum slots.
	Values []string `yaml:"values" json:"values,omitempty"`
}

// Kind returns the effective slot type, defaulting to string.
func (a ArgSpec) Kind() string {
	if a.Type == "" {
		return TypeString
	}
	return a.Type
}

// Info summarizes a loaded snapshot for display and logging.
type Info struct {
	Version  string
	Locales  []string
	Intents  int
	Source   string
	LoadedAt time.Time
}
