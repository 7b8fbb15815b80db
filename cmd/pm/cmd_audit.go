// This file contains the audit commands: list recent events and show
// aggregate statistics from the SQLite trail.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sheldon-92/personalmanager/internal/audit"
	"github.com/Sheldon-92/personalmanager/internal/router"
)

var (
	auditLimit  int
	auditType   string
	auditIntent string
	auditState  string
	auditSince  string
)

// auditCmd groups audit trail queries
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
}

// auditListCmd lists recent events
var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit events, newest first",
	Long: `Reads the SQLite audit trail. Filters combine:

  pm audit list --type route_decision --state blocked
  pm audit list --intent capture --since 24h --limit 10`,
	RunE: runAuditList,
}

// auditStatsCmd aggregates the trail
var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate audit statistics",
	RunE:  runAuditStats,
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum events to return")
	auditListCmd.Flags().StringVar(&auditType, "type", "", "Filter by event type (route_decision, execution_outcome)")
	auditListCmd.Flags().StringVar(&auditIntent, "intent", "", "Filter by intent id")
	auditListCmd.Flags().StringVar(&auditState, "state", "", "Filter by decision state")
	auditListCmd.Flags().StringVar(&auditSince, "since", "", "Only events newer than this age (e.g. 24h)")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditStatsCmd)
}

// openAuditDB opens the configured SQLite trail for querying.
func openAuditDB() (*audit.SQLiteSink, error) {
	if !cfg.Audit.Enabled {
		return nil, fmt.Errorf("auditing is disabled in configuration")
	}
	sink, err := audit.NewSQLiteSink(cfg.Audit.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return sink, nil
}

func runAuditList(cmd *cobra.Command, args []string) error {
	sink, err := openAuditDB()
	if err != nil {
		return err
	}
	defer sink.Close()

	filter := audit.Filter{
		Type:     auditType,
		IntentID: auditIntent,
		State:    auditState,
		Limit:    auditLimit,
	}
	if auditSince != "" {
		age, perr := time.ParseDuration(auditSince)
		if perr != nil {
			return fmt.Errorf("invalid --since %q: %w", auditSince, perr)
		}
		filter.Since = time.Now().UTC().Add(-age)
	}

	events, err := sink.Query(filter)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(events)
	}

	if len(events) == 0 {
		fmt.Println(styleMuted.Render("no matching events"))
		return nil
	}
	for _, ev := range events {
		renderAuditEvent(ev)
	}
	return nil
}

// renderAuditEvent prints one event as a single line plus detail rows.
func renderAuditEvent(ev audit.Event) {
	ts := ev.Timestamp.Local().Format("2006-01-02 15:04:05")

	switch ev.Type {
	case audit.TypeRouteDecision:
		badge := badgeUnmatched.Render(ev.State)
		switch ev.State {
		case router.StateReady.String():
			badge = badgeReady.Render("ready")
		case router.StateNeedsConfirmation.String():
			badge = badgeConfirm.Render("confirm")
		case router.StateBlocked.String():
			badge = badgeBlocked.Render("blocked")
		}
		fmt.Printf("%s %s %q", styleMuted.Render(ts), badge, ev.Utterance)
		if ev.IntentID != "" {
			fmt.Printf(" → %s (%.2f)", ev.IntentID, ev.Confidence)
		}
		fmt.Println()
		if ev.BlockRule != "" {
			fmt.Printf("    %s %s\n", styleLabel.Render("rule"), ev.BlockRule)
		}

	case audit.TypeExecutionOutcome:
		status := "ok"
		switch {
		case ev.TimedOut:
			status = "timed out"
		case ev.Cancelled:
			status = "cancelled"
		case ev.ExitCode != nil && *ev.ExitCode != 0:
			status = fmt.Sprintf("exit %d", *ev.ExitCode)
		}
		fmt.Printf("%s %s %s (%dms)\n",
			styleMuted.Render(ts),
			badgeReady.Render("exec"),
			styleCommand.Render(ev.Command),
			ev.DurationMS)
		fmt.Printf("    %s %s\n", styleLabel.Render("status"), status)

	default:
		fmt.Printf("%s %s %s\n", styleMuted.Render(ts), ev.Type, ev.DecisionID)
	}
}

func runAuditStats(cmd *cobra.Command, args []string) error {
	sink, err := openAuditDB()
	if err != nil {
		return err
	}
	defer sink.Close()

	stats, err := sink.Stats()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(stats)
	}

	fmt.Printf("%s %d\n", styleLabel.Render("events"), stats.Total)
	for t, n := range stats.ByType {
		fmt.Printf("%s %d\n", styleLabel.Render(t), n)
	}
	for s, n := range stats.ByState {
		fmt.Printf("%s %d\n", styleLabel.Render("  "+s), n)
	}
	fmt.Printf("%s %d\n", styleLabel.Render("blocked"), stats.Blocked)
	fmt.Printf("%s %d\n", styleLabel.Render("timed out"), stats.TimedOut)
	if stats.AvgDurationMS > 0 {
		fmt.Printf("%s %.0fms\n", styleLabel.Render("avg runtime"), stats.AvgDurationMS)
	}
	return nil
}
