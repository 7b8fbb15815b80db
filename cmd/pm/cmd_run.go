// This file contains the run command: route an utterance and execute the
// rendered command when the decision allows it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sheldon-92/personalmanager/internal/executor"
	"github.com/Sheldon-92/personalmanager/internal/router"
)

var (
	runYes     bool
	runTimeout string
)

// runCmd routes and executes
var runCmd = &cobra.Command{
	Use:   "run [utterance]",
	Short: "Route an utterance and execute the matched command",
	Long: `Routes the utterance and, when the decision clears, executes the
rendered command in the configured shell.

Decisions in the confirmation band prompt before running (skip with --yes).
A declined confirmation exits 0 without executing.

Exit codes:
  0  executed successfully, or confirmation declined
  1  execution failed to complete (timeout, cancellation, setup error)
  2  no actionable route for the utterance
  3  refused by the safety gate
  N  the command's own non-zero exit code`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip the confirmation prompt")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "Per-command timeout (e.g. 45s), capped by the configured ceiling")
}

// runResult is the combined JSON document for machine consumers.
type runResult struct {
	Decision *router.Decision  `json:"decision"`
	Outcome  *executor.Outcome `json:"outcome,omitempty"`
	Declined bool              `json:"declined,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	timeout, err := parseTimeout(runTimeout)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.router.Route(strings.Join(args, " "))

	switch d.State {
	case router.StateBlocked:
		emitRun(runResult{Decision: d})
		a.Close()
		exitWith(exitBlocked)

	case router.StateUnmatched:
		emitRun(runResult{Decision: d})
		a.Close()
		exitWith(exitUnmatched)

	case router.StateNeedsConfirmation:
		if !runYes {
			if !jsonOutput {
				renderDecision(d)
			}
			ok, perr := askConfirmation(d.ConfirmMessage)
			if perr != nil {
				return perr
			}
			if !ok {
				logger.Info("confirmation declined", zap.String("decision_id", d.ID))
				if jsonOutput {
					emitRun(runResult{Decision: d, Declined: true})
				} else {
					fmt.Println(styleMuted.Render("declined, nothing executed"))
				}
				return nil
			}
		}
		d, err = d.Approve()
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	out, err := a.executor.Execute(ctx, d, timeout)
	if err != nil {
		return err
	}

	if jsonOutput {
		emitRun(runResult{Decision: d, Outcome: out})
	} else {
		renderDecision(d)
		renderOutcome(out)
	}

	// Propagate the child's status through our own exit code.
	switch {
	case out.TimedOut, out.Cancelled:
		a.Close()
		exitWith(exitError)
	case out.ExitCode == nil:
		a.Close()
		exitWith(exitError)
	case *out.ExitCode != 0:
		a.Close()
		exitWith(*out.ExitCode)
	}
	return nil
}

func emitRun(res runResult) {
	if jsonOutput {
		_ = printJSON(res)
		return
	}
	renderDecision(res.Decision)
	if res.Outcome != nil {
		renderOutcome(res.Outcome)
	}
}
