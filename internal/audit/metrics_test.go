package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsDecisionsByState(t *testing.T) {
	m := NewMetrics()

	for _, state := range []string{"ready", "ready", "needs-confirmation", "blocked", "unmatched"} {
		ev := NewEvent(TypeRouteDecision)
		ev.State = state
		require.NoError(t, m.Record(ev))
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap.Decisions)
	assert.Equal(t, int64(2), snap.Ready)
	assert.Equal(t, int64(1), snap.NeedsConfirmation)
	assert.Equal(t, int64(1), snap.Blocked)
	assert.Equal(t, int64(1), snap.Unmatched)
	assert.Zero(t, snap.Executions)
}

func TestMetrics_CountsExecutions(t *testing.T) {
	m := NewMetrics()

	ok := NewEvent(TypeExecutionOutcome)
	zero := 0
	ok.ExitCode = &zero
	require.NoError(t, m.Record(ok))

	failed := NewEvent(TypeExecutionOutcome)
	one := 1
	failed.ExitCode = &one
	require.NoError(t, m.Record(failed))

	timedOut := NewEvent(TypeExecutionOutcome)
	timedOut.TimedOut = true
	require.NoError(t, m.Record(timedOut))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Executions)
	assert.Equal(t, int64(1), snap.Failures)
	assert.Equal(t, int64(1), snap.Timeouts)
}

func TestMetrics_IsASink(t *testing.T) {
	var _ Sink = NewMetrics()
}
