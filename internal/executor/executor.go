// Package executor runs the commands behind ready route decisions. It is
// the only place a child process is ever started: every run is bounded by a
// timeout and an output cap, children die with their process group, and
// each attempt leaves an execution_outcome in the audit trail.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/Sheldon-92/personalmanager/internal/audit"
	"github.com/Sheldon-92/personalmanager/internal/router"
)

// Precondition sentinels. Each names the reason a decision was refused
// before any process was started.
var (
	ErrDecisionBlocked     = errors.New("decision is blocked by the safety gate")
	ErrConfirmationMissing = errors.New("decision requires confirmation")
	ErrNoCommand           = errors.New("decision carries no executable command")
)

// PreconditionError is returned by Execute when the decision is not in a
// runnable state. It wraps one of the sentinels above.
type PreconditionError struct {
	State string
	err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot execute %s decision: %v", e.State, e.err)
}

func (e *PreconditionError) Unwrap() error { return e.err }

// waitDelay is how long Wait lingers for inherited descriptors after the
// child is killed before forcing I/O closed.
const waitDelay = 5 * time.Second

// Executor runs rendered commands under the configured bounds. Safe for
// concurrent use; each Execute call is independent.
type Executor struct {
	opts     Options
	recorder audit.Recorder
	logger   *zap.Logger
}

// New builds an Executor. Zero option fields take the defaults; a nil
// recorder disables auditing.
func New(opts Options, recorder audit.Recorder, logger *zap.Logger) *Executor {
	def := DefaultOptions()
	if opts.Shell == "" {
		opts.Shell = def.Shell
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = def.MaxTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = def.MaxOutputBytes
	}
	if opts.AllowedEnv == nil {
		opts.AllowedEnv = def.AllowedEnv
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{opts: opts, recorder: recorder, logger: logger}
}

// Execute runs the decision's rendered command through the configured
// shell. A non-positive timeout takes the default; any timeout is clamped
// to the ceiling. The returned error is non-nil only for precondition
// failures - a command that ran and failed (non-zero exit, timeout,
// cancellation) is reported through the Outcome, not the error.
func (e *Executor) Execute(ctx context.Context, d *router.Decision, timeout time.Duration) (*Outcome, error) {
	if err := e.checkPreconditions(d); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = e.opts.Timeout
	}
	if timeout > e.opts.MaxTimeout {
		timeout = e.opts.MaxTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, e.opts.Shell, "-c", d.RenderedCommand)
	cmd.Dir = e.opts.WorkDir
	cmd.Env = e.buildEnv()
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: e.opts.MaxOutputBytes}
	stderr := &limitedWriter{w: &stderrBuf, max: e.opts.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	out := &Outcome{
		DecisionID: d.ID,
		Command:    d.RenderedCommand,
		StartedAt:  time.Now().UTC(),
	}

	e.logger.Debug("executing command",
		zap.String("decision_id", d.ID),
		zap.String("command", d.RenderedCommand),
		zap.Duration("timeout", timeout))

	runErr := cmd.Run()

	out.Duration = time.Since(out.StartedAt)
	out.DurationMS = out.Duration.Milliseconds()
	out.Stdout = stdoutBuf.String()
	out.Stderr = stderrBuf.String()
	out.Truncated = stdout.truncated || stderr.truncated

	// Timeout and cancellation are checked before the exit error: a killed
	// child also reports an ExitError, and that must not masquerade as a
	// command failure with an exit code.
	switch {
	case runErr == nil:
		code := 0
		out.ExitCode = &code
	case execCtx.Err() == context.DeadlineExceeded:
		out.TimedOut = true
		e.logger.Warn("command timed out",
			zap.String("decision_id", d.ID),
			zap.Duration("timeout", timeout))
	case execCtx.Err() == context.Canceled:
		out.Cancelled = true
		e.logger.Debug("command cancelled", zap.String("decision_id", d.ID))
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code := exitErr.ExitCode()
			out.ExitCode = &code
		} else {
			// Never started: missing shell, bad working directory. Surface
			// the reason where command errors normally land.
			if out.Stderr == "" {
				out.Stderr = runErr.Error()
			}
			e.logger.Error("command failed to start",
				zap.String("decision_id", d.ID),
				zap.Error(runErr))
		}
	}

	e.record(out)
	return out, nil
}

// checkPreconditions refuses any decision that is not cleared to run.
func (e *Executor) checkPreconditions(d *router.Decision) error {
	switch d.State {
	case router.StateReady:
		if d.RenderedCommand == "" {
			return &PreconditionError{State: d.State.String(), err: ErrNoCommand}
		}
		return nil
	case router.StateBlocked:
		return &PreconditionError{State: d.State.String(), err: ErrDecisionBlocked}
	case router.StateNeedsConfirmation:
		return &PreconditionError{State: d.State.String(), err: ErrConfirmationMissing}
	default:
		return &PreconditionError{State: d.State.String(), err: ErrNoCommand}
	}
}

// buildEnv passes through only the allow-listed environment variables.
func (e *Executor) buildEnv() []string {
	env := make([]string, 0, len(e.opts.AllowedEnv))
	for _, key := range e.opts.AllowedEnv {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}
	return env
}

func (e *Executor) record(out *Outcome) {
	ev := audit.NewEvent(audit.TypeExecutionOutcome)
	ev.DecisionID = out.DecisionID
	ev.Command = out.Command
	ev.ExitCode = out.ExitCode
	ev.DurationMS = out.DurationMS
	ev.TimedOut = out.TimedOut
	ev.Cancelled = out.Cancelled
	ev.Truncated = out.Truncated
	e.recorder.Record(ev)
}

// limitedWriter caps how much child output is kept. Writes past the cap are
// dropped but reported as successful, so the child never sees a write error
// just because we stopped listening.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	if remaining := lw.max - lw.written; int64(n) > remaining {
		lw.truncated = true
		wrote, err := lw.w.Write(p[:remaining])
		lw.written += int64(wrote)
		return n, err
	}
	wrote, err := lw.w.Write(p)
	lw.written += int64(wrote)
	return wrote, err
}
