// This file contains the terminal rendering for decisions, outcomes, and
// catalog listings. Human output is styled with lipgloss; --json switches
// every command to plain encoding/json on stdout.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sheldon-92/personalmanager/internal/executor"
	"github.com/Sheldon-92/personalmanager/internal/router"
)

// timePrecision rounds displayed durations.
const timePrecision = time.Millisecond

// Semantic colors, shared with the interactive prompt.
var (
	colorDestructive = lipgloss.Color("#e53935") // Red
	colorSuccess     = lipgloss.Color("#8BC34A") // Lime Green
	colorWarning     = lipgloss.Color("#FFC107") // Yellow
	colorInfo        = lipgloss.Color("#2196F3") // Blue
	colorMuted       = lipgloss.Color("#d6dae0")
)

var (
	styleLabel = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	styleValue = lipgloss.NewStyle().
			Bold(true)

	styleCommand = lipgloss.NewStyle().
			Foreground(colorInfo).
			Padding(0, 1)

	styleReason = lipgloss.NewStyle().
			Foreground(colorDestructive).
			Italic(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	badgeReady = lipgloss.NewStyle().
			Background(colorSuccess).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true)

	badgeConfirm = lipgloss.NewStyle().
			Background(colorWarning).
			Foreground(lipgloss.Color("#101F38")).
			Padding(0, 1).
			Bold(true)

	badgeBlocked = lipgloss.NewStyle().
			Background(colorDestructive).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true)

	badgeUnmatched = lipgloss.NewStyle().
			Background(colorMuted).
			Foreground(lipgloss.Color("#101F38")).
			Padding(0, 1)
)

// stateBadge renders the decision state as a colored badge.
func stateBadge(s router.State) string {
	switch s {
	case router.StateReady:
		return badgeReady.Render("READY")
	case router.StateNeedsConfirmation:
		return badgeConfirm.Render("CONFIRM")
	case router.StateBlocked:
		return badgeBlocked.Render("BLOCKED")
	default:
		return badgeUnmatched.Render("UNMATCHED")
	}
}

// printJSON writes any value as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderDecision prints one decision as a key-value block.
func renderDecision(d *router.Decision) {
	if jsonOutput {
		_ = printJSON(d)
		return
	}

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Printf("%s %s\n", styleLabel.Render(label), value)
	}

	fmt.Printf("%s %s\n", stateBadge(d.State), styleMuted.Render(d.ID))
	row("utterance", styleValue.Render(d.Utterance))
	row("intent", d.IntentID)
	if d.IntentID != "" || d.Confidence > 0 {
		row("confidence", fmt.Sprintf("%.2f (%s)", d.Confidence, d.MatchKind))
	}
	if len(d.Args) > 0 {
		parts := make([]string, 0, len(d.Args))
		for k, v := range d.Args {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		row("args", strings.Join(parts, " "))
	}
	if d.RenderedCommand != "" {
		row("command", styleCommand.Render(d.RenderedCommand))
	}
	switch d.State {
	case router.StateBlocked:
		row("rule", d.BlockRule)
		row("reason", styleReason.Render(d.BlockReason))
	case router.StateNeedsConfirmation:
		row("confirm", d.ConfirmMessage)
	case router.StateUnmatched:
		if d.Confidence > 0 {
			row("note", styleMuted.Render("matched below the confidence floor; not executed"))
		} else {
			row("note", styleMuted.Render("no actionable route"))
		}
	}
}

// renderOutcome prints an execution outcome under its decision.
func renderOutcome(out *executor.Outcome) {
	if jsonOutput {
		_ = printJSON(out)
		return
	}

	status := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("ok")
	switch {
	case out.TimedOut:
		status = lipgloss.NewStyle().Foreground(colorDestructive).Bold(true).Render("timed out")
	case out.Cancelled:
		status = lipgloss.NewStyle().Foreground(colorWarning).Bold(true).Render("cancelled")
	case !out.Succeeded():
		status = lipgloss.NewStyle().Foreground(colorDestructive).Bold(true).Render("failed")
	}

	exit := "-"
	if out.ExitCode != nil {
		exit = fmt.Sprintf("%d", *out.ExitCode)
	}
	fmt.Printf("%s %s exit=%s elapsed=%s\n",
		styleLabel.Render("outcome"), status, exit, out.Duration.Round(timePrecision))
	if out.Truncated {
		fmt.Println(styleMuted.Render("output truncated"))
	}
	if out.Stdout != "" {
		fmt.Print(out.Stdout)
		if !strings.HasSuffix(out.Stdout, "\n") {
			fmt.Println()
		}
	}
	if out.Stderr != "" {
		fmt.Fprint(os.Stderr, out.Stderr)
		if !strings.HasSuffix(out.Stderr, "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
}
