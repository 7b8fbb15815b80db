package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Normalize canonicalizes an utterance or trigger phrase for matching:
// Unicode case fold, trim, and interior whitespace collapsed to single
// spaces. Phrase comparison anywhere in the router must go through this so
// that utterances and catalog phrases normalize identically.
func Normalize(s string) string {
	folded := folder.String(strings.TrimSpace(s))
	if !strings.ContainsAny(folded, " \t\n\r") {
		return folded
	}
	return strings.Join(strings.Fields(folded), " ")
}
