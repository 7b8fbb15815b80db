package audit

import "sync/atomic"

// Metrics counts events in process. It satisfies Sink so it sits on the
// dispatcher next to the persistent sinks; Record never fails. Batch
// routing uses a Metrics to summarize a run without touching the database.
type Metrics struct {
	decisions         atomic.Int64
	ready             atomic.Int64
	needsConfirmation atomic.Int64
	blocked           atomic.Int64
	unmatched         atomic.Int64
	executions        atomic.Int64
	failures          atomic.Int64
	timeouts          atomic.Int64
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics { return &Metrics{} }

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Decisions         int64 `json:"decisions"`
	Ready             int64 `json:"ready"`
	NeedsConfirmation int64 `json:"needsConfirmation"`
	Blocked           int64 `json:"blocked"`
	Unmatched         int64 `json:"unmatched"`
	Executions        int64 `json:"executions"`
	Failures          int64 `json:"failures"`
	Timeouts          int64 `json:"timeouts"`
}

// Record tallies the event. Decision states follow the router's names.
func (m *Metrics) Record(ev Event) error {
	switch ev.Type {
	case TypeRouteDecision:
		m.decisions.Add(1)
		switch ev.State {
		case "ready":
			m.ready.Add(1)
		case "needs-confirmation":
			m.needsConfirmation.Add(1)
		case "blocked":
			m.blocked.Add(1)
		default:
			m.unmatched.Add(1)
		}
	case TypeExecutionOutcome:
		m.executions.Add(1)
		if ev.TimedOut {
			m.timeouts.Add(1)
		}
		if ev.ExitCode != nil && *ev.ExitCode != 0 {
			m.failures.Add(1)
		}
	}
	return nil
}

// Close satisfies Sink.
func (m *Metrics) Close() error { return nil }

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Decisions:         m.decisions.Load(),
		Ready:             m.ready.Load(),
		NeedsConfirmation: m.needsConfirmation.Load(),
		Blocked:           m.blocked.Load(),
		Unmatched:         m.unmatched.Load(),
		Executions:        m.executions.Load(),
		Failures:          m.failures.Load(),
		Timeouts:          m.timeouts.Load(),
	}
}
