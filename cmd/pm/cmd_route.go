// This file contains the route command: classify an utterance without
// executing anything. Batch mode routes a file of utterances concurrently.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sheldon-92/personalmanager/internal/router"
)

var (
	routeFile string
	routeJobs int
)

// routeCmd classifies without executing
var routeCmd = &cobra.Command{
	Use:   "route [utterance]",
	Short: "Route an utterance to a decision without executing it",
	Long: `Matches the utterance against the intent catalog and prints the
resulting decision: matched intent, confidence, rendered command, and the
safety verdict. Nothing is executed.

With --file, each non-empty line of the file is routed as one utterance.
Lines starting with # are skipped. Routing is pure, so batch mode runs
concurrently and still prints results in input order.

Examples:
  pm route "今天的任务"
  pm route --file utterances.txt --jobs 8`,
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeFile, "file", "", "Route every line of this file")
	routeCmd.Flags().IntVar(&routeJobs, "jobs", 4, "Concurrent routing workers in batch mode")
}

func runRoute(cmd *cobra.Command, args []string) error {
	if routeFile == "" && len(args) == 0 {
		return fmt.Errorf("provide an utterance or --file")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if routeFile == "" {
		d := a.router.Route(strings.Join(args, " "))
		renderDecision(d)
		return nil
	}

	utterances, err := readUtterances(routeFile)
	if err != nil {
		return err
	}
	if len(utterances) == 0 {
		return fmt.Errorf("%s: no utterances", routeFile)
	}

	if routeJobs < 1 {
		routeJobs = 1
	}
	decisions := make([]*router.Decision, len(utterances))
	var g errgroup.Group
	g.SetLimit(routeJobs)
	for i, u := range utterances {
		g.Go(func() error {
			decisions[i] = a.router.Route(u)
			return nil
		})
	}
	// Route never fails per-utterance, so Wait only orders the output.
	_ = g.Wait()

	for i, d := range decisions {
		if !jsonOutput && i > 0 {
			fmt.Println()
		}
		renderDecision(d)
	}

	if a.metrics != nil && !jsonOutput {
		snap := a.metrics.Snapshot()
		fmt.Println()
		fmt.Println(styleMuted.Render(fmt.Sprintf(
			"routed %d: %d ready, %d need confirmation, %d blocked, %d unmatched",
			snap.Decisions, snap.Ready, snap.NeedsConfirmation, snap.Blocked, snap.Unmatched)))
		logger.Debug("batch routing finished",
			zap.Int("utterances", len(utterances)),
			zap.Int("jobs", routeJobs))
	}
	return nil
}

// readUtterances loads one utterance per non-empty, non-comment line.
func readUtterances(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
