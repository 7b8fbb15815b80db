package executor

import "time"

// Outcome reports what happened when a decision's command ran. An Outcome
// is produced for every attempt that passed the preconditions, including
// timeouts, cancellations, and commands that never started.
type Outcome struct {
	DecisionID string `json:"decisionId"`
	Command    string `json:"command"`

	// ExitCode is nil when the process produced none: killed on timeout or
	// cancellation, or failed to start. Exit 0 and "no exit" are distinct.
	ExitCode *int `json:"exitCode"`

	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	StartedAt time.Time `json:"startedAt"`

	// Duration is the wall-clock run time; DurationMS is its serialized
	// form, matching the audit record.
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"durationMs"`

	TimedOut  bool `json:"timedOut,omitempty"`
	Cancelled bool `json:"cancelled,omitempty"`

	// Truncated marks that captured output hit the configured cap.
	Truncated bool `json:"truncated,omitempty"`
}

// Succeeded reports a clean zero exit.
func (o *Outcome) Succeeded() bool {
	return o.ExitCode != nil && *o.ExitCode == 0 && !o.TimedOut && !o.Cancelled
}

// Options bounds how commands run. Zero fields fall back to defaults when
// the Executor is built.
type Options struct {
	// Shell runs every rendered command as `Shell -c <command>`.
	Shell string

	// Timeout applies when the caller does not request one.
	Timeout time.Duration

	// MaxTimeout caps any requested timeout.
	MaxTimeout time.Duration

	// MaxOutputBytes caps captured stdout and stderr, each.
	MaxOutputBytes int64

	// WorkDir is the child process working directory.
	WorkDir string

	// AllowedEnv names the environment variables passed through to the
	// child. Everything else is stripped.
	AllowedEnv []string
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Shell:          "sh",
		Timeout:        30 * time.Second,
		MaxTimeout:     5 * time.Minute,
		MaxOutputBytes: 10 * 1024 * 1024,
		WorkDir:        ".",
		AllowedEnv:     []string{"PATH", "HOME", "LANG", "LC_ALL", "TZ"},
	}
}
