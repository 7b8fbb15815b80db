// Package safety implements the destructive-command veto. Every rendered
// command is screened against a fixed table of destructive-operation
// signatures before execution; a hit blocks the command unconditionally,
// regardless of match confidence or user confirmation.
package safety

import (
	"fmt"
	"regexp"
)

// Verdict values reported by the gate.
const (
	VerdictAllowed = "allowed"
	VerdictBlocked = "blocked"
)

// Signature is one fixed destructive-operation matcher. The built-in table
// is static: compiled once at package init, never mutated at runtime.
type Signature struct {
	// Name identifies the matched rule in decisions and audit records.
	Name string

	// Reason is the operator-facing explanation for the block.
	Reason string

	// Pattern is the source regexp, kept for display.
	Pattern string

	re *regexp.Regexp
}

// Matches reports whether the command string hits this signature.
func (s *Signature) Matches(command string) bool {
	return s.re.MatchString(command)
}

type rawSignature struct {
	name    string
	reason  string
	pattern string
}

// builtins is the ordered signature table. Order matters only for reporting:
// the first hit names the rule, any hit blocks.
var builtins = compileSignatures([]rawSignature{
	{
		name:    "recursive-root-delete",
		reason:  "recursive force-delete of the filesystem root",
		pattern: `^(sudo\s+)?rm\s+(-[rRf]+\s+)+/(\*)?(\s|$)`,
	},
	{
		name:    "recursive-system-delete",
		reason:  "recursive force-delete of a system directory",
		pattern: `^(sudo\s+)?rm\s+(-[rRf]+\s+)+/(bin|boot|dev|etc|home|lib|lib64|media|mnt|opt|proc|root|run|sbin|srv|sys|usr|var)(/|\s|$)`,
	},
	{
		name:    "recursive-home-delete",
		reason:  "recursive force-delete of the home directory",
		pattern: `^(sudo\s+)?rm\s+(-[rRf]+\s+)+~/?\*?(\s|$)`,
	},
	{
		name:    "privileged-delete",
		reason:  "privilege-escalated recursive or forced delete",
		pattern: `^sudo\s+rm\s+(-[a-zA-Z]+\s+)*-[a-zA-Z]*[rRf]`,
	},
	{
		name:    "raw-device-write",
		reason:  "raw write to a block device",
		pattern: `\bdd\b.*\bof=/dev/`,
	},
	{
		name:    "filesystem-format",
		reason:  "filesystem formatting",
		pattern: `^(sudo\s+)?mkfs(\.[a-z0-9]+)?\b`,
	},
	{
		name:    "disk-partitioning",
		reason:  "partition table manipulation on a raw device",
		pattern: `^(sudo\s+)?(fdisk|parted|sfdisk)\s+/dev/`,
	},
	{
		name:    "fork-bomb",
		reason:  "shell fork bomb",
		pattern: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`,
	},
	{
		name:    "remote-script-pipe",
		reason:  "remote script piped into a shell interpreter",
		pattern: `\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(bash|sh|zsh)\b`,
	},
	{
		name:    "destructive-ddl",
		reason:  "destructive SQL DDL statement",
		pattern: `\b(drop\s+(database|schema|table)|truncate\s+table)\b`,
	},
})

// compileSignatures compiles the table case-insensitively. Built-in patterns
// must always be valid; an invalid entry is a programming error, so panic.
func compileSignatures(raw []rawSignature) []Signature {
	sigs := make([]Signature, 0, len(raw))
	for _, r := range raw {
		re, err := regexp.Compile("(?i)" + r.pattern)
		if err != nil {
			panic(fmt.Sprintf("invalid builtin safety signature %q: %v", r.pattern, err))
		}
		sigs = append(sigs, Signature{
			Name:    r.name,
			Reason:  r.reason,
			Pattern: r.pattern,
			re:      re,
		})
	}
	return sigs
}

// Signatures returns a copy of the built-in signature table.
func Signatures() []Signature {
	out := make([]Signature, len(builtins))
	copy(out, builtins)
	return out
}
