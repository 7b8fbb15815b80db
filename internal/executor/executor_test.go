package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Sheldon-92/personalmanager/internal/audit"
	"github.com/Sheldon-92/personalmanager/internal/router"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type captureRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureRecorder) Record(ev audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureRecorder) all() []audit.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]audit.Event(nil), c.events...)
}

func readyDecision(command string) *router.Decision {
	return &router.Decision{
		ID:              "d-test",
		Utterance:       "test",
		IntentID:        "test",
		Confidence:      1.0,
		RenderedCommand: command,
		SafetyVerdict:   "allowed",
		State:           router.StateReady,
		CreatedAt:       time.Now().UTC(),
	}
}

func skipWithoutSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecute_Success(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	out, err := e.Execute(context.Background(), readyDecision("echo hello"), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %v", out.ExitCode)
	}
	if !strings.Contains(out.Stdout, "hello") {
		t.Errorf("expected stdout to contain 'hello', got: %q", out.Stdout)
	}
	if !out.Succeeded() {
		t.Error("expected Succeeded() to be true")
	}
	if out.TimedOut || out.Cancelled || out.Truncated {
		t.Errorf("unexpected flags: %+v", out)
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	out, err := e.Execute(context.Background(), readyDecision("echo oops >&2; exit 3"), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.ExitCode == nil || *out.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %v", out.ExitCode)
	}
	if !strings.Contains(out.Stderr, "oops") {
		t.Errorf("expected stderr to contain 'oops', got: %q", out.Stderr)
	}
	if out.Succeeded() {
		t.Error("expected Succeeded() to be false for non-zero exit")
	}
}

func TestExecute_Timeout(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	start := time.Now()
	out, err := e.Execute(context.Background(), readyDecision("sleep 10"), 500*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.TimedOut {
		t.Error("expected TimedOut")
	}
	if out.ExitCode != nil {
		t.Errorf("timed-out command must carry no exit code, got %d", *out.ExitCode)
	}
	if out.Cancelled {
		t.Error("timeout must not also report cancellation")
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout did not take effect, elapsed %v", elapsed)
	}
}

func TestExecute_TimeoutKillsBackgroundChildren(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	// The shell spawns a grandchild holding our output pipe. Without the
	// process-group kill, Wait would linger until the grandchild exits or
	// the wait delay forces the pipe closed.
	start := time.Now()
	out, err := e.Execute(context.Background(), readyDecision("sleep 10 & sleep 10"), 500*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.TimedOut {
		t.Error("expected TimedOut")
	}
	if elapsed > 3*time.Second {
		t.Errorf("background child outlived the kill, elapsed %v", elapsed)
	}
}

func TestExecute_TimeoutClampedToCeiling(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{MaxTimeout: 500 * time.Millisecond}, nil, zap.NewNop())

	start := time.Now()
	out, err := e.Execute(context.Background(), readyDecision("sleep 10"), time.Hour)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.TimedOut {
		t.Error("expected the clamped timeout to fire")
	}
	if elapsed > 2*time.Second {
		t.Errorf("requested timeout was not clamped, elapsed %v", elapsed)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	out, err := e.Execute(ctx, readyDecision("sleep 10"), 30*time.Second)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Cancelled {
		t.Error("expected Cancelled")
	}
	if out.TimedOut {
		t.Error("cancellation must not report a timeout")
	}
	if out.ExitCode != nil {
		t.Errorf("cancelled command must carry no exit code, got %d", *out.ExitCode)
	}
}

func TestExecute_OutputTruncated(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{MaxOutputBytes: 64}, nil, zap.NewNop())

	script := "i=0; while [ $i -lt 100 ]; do echo aaaaaaaaaa; i=$((i+1)); done"
	out, err := e.Execute(context.Background(), readyDecision(script), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Truncated {
		t.Error("expected Truncated")
	}
	if int64(len(out.Stdout)) != 64 {
		t.Errorf("expected stdout capped at 64 bytes, got %d", len(out.Stdout))
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("truncation must not fail the command, got exit %v", out.ExitCode)
	}
}

func TestExecute_EnvAllowlist(t *testing.T) {
	skipWithoutSh(t)
	t.Setenv("PM_TEST_ALLOWED", "yes")
	t.Setenv("PM_TEST_DENIED", "no")

	e := New(Options{AllowedEnv: []string{"PATH", "PM_TEST_ALLOWED"}}, nil, zap.NewNop())
	out, err := e.Execute(context.Background(),
		readyDecision(`echo "${PM_TEST_ALLOWED:-unset}:${PM_TEST_DENIED:-unset}"`), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := strings.TrimSpace(out.Stdout); got != "yes:unset" {
		t.Errorf("environment leak: got %q, want %q", got, "yes:unset")
	}
}

func TestExecute_WorkDir(t *testing.T) {
	skipWithoutSh(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("here"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(Options{WorkDir: dir}, nil, zap.NewNop())
	out, err := e.Execute(context.Background(), readyDecision("cat marker.txt"), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out.Stdout, "here") {
		t.Errorf("working directory not applied, stdout: %q", out.Stdout)
	}
}

func TestExecute_Preconditions(t *testing.T) {
	e := New(Options{}, nil, zap.NewNop())

	tests := []struct {
		name     string
		decision *router.Decision
		want     error
	}{
		{
			name:     "blocked",
			decision: &router.Decision{ID: "d1", State: router.StateBlocked, RenderedCommand: "rm -rf /"},
			want:     ErrDecisionBlocked,
		},
		{
			name:     "needs confirmation",
			decision: &router.Decision{ID: "d2", State: router.StateNeedsConfirmation, RenderedCommand: "pm capture x"},
			want:     ErrConfirmationMissing,
		},
		{
			name:     "unmatched",
			decision: &router.Decision{ID: "d3", State: router.StateUnmatched},
			want:     ErrNoCommand,
		},
		{
			name:     "ready without command",
			decision: &router.Decision{ID: "d4", State: router.StateReady},
			want:     ErrNoCommand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Execute(context.Background(), tt.decision, 0)
			if out != nil {
				t.Error("refused decision must not produce an outcome")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var pre *PreconditionError
			if !errors.As(err, &pre) {
				t.Fatalf("expected *PreconditionError, got %T", err)
			}
			if pre.State != tt.decision.State.String() {
				t.Errorf("error state %q, want %q", pre.State, tt.decision.State.String())
			}
		})
	}
}

func TestExecute_ApprovedConfirmationRuns(t *testing.T) {
	skipWithoutSh(t)
	e := New(Options{}, nil, zap.NewNop())

	d := readyDecision("echo approved")
	d.State = router.StateNeedsConfirmation

	if _, err := e.Execute(context.Background(), d, 0); !errors.Is(err, ErrConfirmationMissing) {
		t.Fatalf("expected ErrConfirmationMissing, got %v", err)
	}

	approved, err := d.Approve()
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	out, err := e.Execute(context.Background(), approved, 0)
	if err != nil {
		t.Fatalf("Execute after approval failed: %v", err)
	}
	if !out.Succeeded() {
		t.Errorf("expected success after approval, got %+v", out)
	}
}

func TestExecute_RecordsOutcome(t *testing.T) {
	skipWithoutSh(t)
	rec := &captureRecorder{}
	e := New(Options{}, rec, zap.NewNop())

	out, err := e.Execute(context.Background(), readyDecision("echo audited"), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	ev := events[0]
	if ev.Type != audit.TypeExecutionOutcome {
		t.Errorf("event type %q, want %q", ev.Type, audit.TypeExecutionOutcome)
	}
	if ev.DecisionID != out.DecisionID {
		t.Errorf("event decision id %q, want %q", ev.DecisionID, out.DecisionID)
	}
	if ev.ExitCode == nil || *ev.ExitCode != 0 {
		t.Errorf("event exit code %v, want 0", ev.ExitCode)
	}
}

func TestExecute_RefusedDecisionNotAudited(t *testing.T) {
	rec := &captureRecorder{}
	e := New(Options{}, rec, zap.NewNop())

	_, err := e.Execute(context.Background(),
		&router.Decision{ID: "d5", State: router.StateBlocked}, 0)
	if err == nil {
		t.Fatal("expected precondition error")
	}
	if len(rec.all()) != 0 {
		t.Error("refused decisions must not produce execution events")
	}
}

type failingSink struct{}

func (failingSink) Record(audit.Event) error { return errors.New("sink down") }
func (failingSink) Close() error             { return nil }

func TestExecute_AuditFailureDoesNotFailExecution(t *testing.T) {
	skipWithoutSh(t)
	dispatcher := audit.NewDispatcher(zap.NewNop(), failingSink{})
	e := New(Options{}, dispatcher, zap.NewNop())

	out, err := e.Execute(context.Background(), readyDecision("echo still fine"), 0)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Succeeded() {
		t.Errorf("expected success despite audit failure, got %+v", out)
	}
}
