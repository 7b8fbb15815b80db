// This file contains the safety commands: check a raw command against the
// destructive-operation gate and list the built-in signatures.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sheldon-92/personalmanager/internal/safety"
)

// safetyCmd groups safety gate operations
var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Check commands against the safety gate",
}

// safetyCheckCmd assesses one raw command string
var safetyCheckCmd = &cobra.Command{
	Use:   "check [command...]",
	Short: "Assess a raw command string",
	Long: `Runs the destructive-command gate over a raw string, segment by
segment: compound commands joined with &&, ||, ; or | are split and each
part is assessed, worst verdict wins.

Exits 3 when the command would be refused.

Example:
  pm safety check "cd /tmp && rm -rf /"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSafetyCheck,
}

// safetyRulesCmd lists the signature table
var safetyRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in destructive-command signatures",
	RunE:  runSafetyRules,
}

func init() {
	safetyCmd.AddCommand(safetyCheckCmd)
	safetyCmd.AddCommand(safetyRulesCmd)
}

func runSafetyCheck(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")
	gate := safety.NewGate(logger.Named("safety"))
	assessment := gate.Assess(command)

	if jsonOutput {
		if err := printJSON(struct {
			Command string `json:"command"`
			Verdict string `json:"verdict"`
			Rule    string `json:"rule,omitempty"`
			Reason  string `json:"reason,omitempty"`
		}{command, assessment.Verdict(), assessment.Rule, assessment.Reason}); err != nil {
			return err
		}
	} else if assessment.Blocked {
		fmt.Printf("%s %s\n", badgeBlocked.Render("BLOCKED"), styleCommand.Render(command))
		fmt.Printf("%s %s\n", styleLabel.Render("rule"), assessment.Rule)
		fmt.Printf("%s %s\n", styleLabel.Render("reason"), styleReason.Render(assessment.Reason))
	} else {
		fmt.Printf("%s %s\n", badgeReady.Render("ALLOWED"), styleCommand.Render(command))
	}

	if assessment.Blocked {
		exitWith(exitBlocked)
	}
	return nil
}

func runSafetyRules(cmd *cobra.Command, args []string) error {
	signatures := safety.Signatures()

	if jsonOutput {
		type row struct {
			Name    string `json:"name"`
			Reason  string `json:"reason"`
			Pattern string `json:"pattern"`
		}
		rows := make([]row, 0, len(signatures))
		for _, s := range signatures {
			rows = append(rows, row{s.Name, s.Reason, s.Pattern})
		}
		return printJSON(rows)
	}

	fmt.Printf("%d built-in signatures\n\n", len(signatures))
	for _, s := range signatures {
		fmt.Printf("%s %s\n", badgeBlocked.Render(s.Name), s.Reason)
		fmt.Printf("%s %s\n\n", styleLabel.Render("pattern"), styleMuted.Render(s.Pattern))
	}
	return nil
}
