package router

import (
	"fmt"
	"time"
)

// State classifies a route decision. The safety gate's veto is absolute:
// a blocked decision never becomes executable, and confirmation only ever
// advances needs-confirmation to ready.
type State int

const (
	// StateUnmatched: nothing in the catalog matched with usable confidence,
	// or slot validation failed. There is no execution path.
	StateUnmatched State = iota

	// StateBlocked: the safety gate vetoed the rendered command. Terminal.
	StateBlocked

	// StateNeedsConfirmation: matched and safe, but confidence falls in the
	// band that requires an explicit go-ahead.
	StateNeedsConfirmation

	// StateReady: cleared for execution.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBlocked:
		return "blocked"
	case StateNeedsConfirmation:
		return "needs-confirmation"
	case StateReady:
		return "ready"
	default:
		return "unmatched"
	}
}

// MarshalText makes the state render as its name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decision is the immutable outcome of routing one utterance. Construction
// happens only inside Route; afterwards nothing mutates a Decision, so it is
// safe to share across goroutines and to hand to the executor and audit
// sinks as-is. Approve returns a fresh value rather than flipping state in
// place.
type Decision struct {
	// ID uniquely identifies this decision across audit events.
	ID string `json:"id"`

	// Utterance is the user's input, untouched.
	Utterance string `json:"utterance"`

	// Locale is the preference the candidates were ordered under.
	Locale string `json:"locale,omitempty"`

	// IntentID names the matched intent. Empty when unmatched.
	IntentID string `json:"intentId,omitempty"`

	// Confidence is the winning candidate's score, 0 when nothing matched.
	Confidence float64 `json:"confidence"`

	// MatchKind records how the intent matched. Empty when unmatched.
	MatchKind MatchKind `json:"matchKind,omitempty"`

	// Args holds the validated, typed argument values the command was
	// rendered from.
	Args map[string]interface{} `json:"args,omitempty"`

	// RenderedCommand is the fully substituted command string. Empty when
	// there is no execution path.
	RenderedCommand string `json:"renderedCommand,omitempty"`

	// ConfirmMessage is the prompt to show when confirmation is required.
	ConfirmMessage string `json:"confirmMessage,omitempty"`

	// SafetyVerdict is the gate's verdict on the rendered command.
	SafetyVerdict string `json:"safetyVerdict"`

	// BlockRule and BlockReason identify the signature that vetoed the
	// command. Set only when blocked.
	BlockRule   string `json:"blockRule,omitempty"`
	BlockReason string `json:"blockReason,omitempty"`

	// State is the decision's classification.
	State State `json:"state"`

	// CreatedAt is when the decision was made, UTC.
	CreatedAt time.Time `json:"createdAt"`
}

// Executable reports whether the decision is cleared to run right now.
func (d *Decision) Executable() bool {
	return d.State == StateReady
}

// Approve returns a copy of the decision advanced to ready. Approving an
// already-ready decision is a no-op that returns the decision itself.
// Blocked and unmatched decisions cannot be approved: the safety veto is
// not overridable by confirmation, and there is nothing to approve on an
// unmatched utterance.
func (d *Decision) Approve() (*Decision, error) {
	switch d.State {
	case StateReady:
		return d, nil
	case StateNeedsConfirmation:
		approved := *d
		approved.State = StateReady
		return &approved, nil
	default:
		return nil, fmt.Errorf("%w: decision %s is %s", ErrNotConfirmable, d.ID, d.State)
	}
}
