package router

import (
	"errors"
	"fmt"
)

// ErrNotConfirmable is returned by Decision.Approve when the decision is in
// a state that confirmation cannot advance. Blocked decisions stay blocked;
// unmatched decisions have nothing to approve.
var ErrNotConfirmable = errors.New("decision is not awaiting confirmation")

// SlotValidationError reports a required argument that was missing from a
// structured match or a captured value that failed type coercion. The router
// treats the affected candidate as unusable and reports the utterance as
// unmatched; the error itself never escapes Route.
type SlotValidationError struct {
	IntentID string
	Slot     string
	Reason   string
}

func (e *SlotValidationError) Error() string {
	return fmt.Sprintf("intent %s: slot %q: %s", e.IntentID, e.Slot, e.Reason)
}
