// Package audit records what the router decided and what the executor did.
// Events fan out to pluggable sinks (JSONL file, SQLite) through a
// dispatcher that absorbs sink failures: an unhealthy audit trail never
// fails routing or execution.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeRouteDecision    = "route_decision"
	TypeExecutionOutcome = "execution_outcome"
)

// Event is one audit record. The struct is flat on purpose: every sink can
// serialize it directly and no sink needs to understand router or executor
// types. Fields that do not apply to the event type stay zero.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Routing fields.
	DecisionID    string  `json:"decisionId,omitempty"`
	Utterance     string  `json:"utterance,omitempty"`
	IntentID      string  `json:"intentId,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	MatchKind     string  `json:"matchKind,omitempty"`
	State         string  `json:"state,omitempty"`
	Command       string  `json:"command,omitempty"`
	SafetyVerdict string  `json:"safetyVerdict,omitempty"`
	BlockRule     string  `json:"blockRule,omitempty"`
	BlockReason   string  `json:"blockReason,omitempty"`

	// Execution fields. ExitCode is a pointer so "no exit code" (timeout
	// kill, start failure) is distinguishable from exit 0.
	ExitCode   *int  `json:"exitCode,omitempty"`
	DurationMS int64 `json:"durationMs,omitempty"`
	TimedOut   bool  `json:"timedOut,omitempty"`
	Cancelled  bool  `json:"cancelled,omitempty"`
	Truncated  bool  `json:"truncated,omitempty"`
}

// NewEvent returns an event of the given type stamped with a fresh id and
// UTC timestamp.
func NewEvent(eventType string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}
