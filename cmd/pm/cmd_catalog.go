// This file contains the catalog commands: validate a catalog document,
// show the loaded intents, and watch the file for hot reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sheldon-92/personalmanager/internal/catalog"
)

// catalogCmd groups catalog operations
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and watch the intent catalog",
}

// catalogValidateCmd loads and validates without serving
var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a catalog document",
	Long: `Loads the catalog and reports every validation issue at once:
missing ids, duplicate ids, intents with neither phrases nor pattern,
invalid extraction patterns, placeholders without a declared slot, enums
without values, defaults that fail their own coercion.

Exits 1 when the document is invalid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

// catalogShowCmd lists the compiled intents
var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the catalog's intents",
	RunE:  runCatalogShow,
}

// catalogWatchCmd hot-reloads on file changes
var catalogWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the catalog file and hot-reload on change",
	Long: `Serves the catalog and rebuilds the compiled snapshot whenever the
file changes on disk. A broken edit is reported and the previous snapshot
keeps serving; the swap happens only after a clean load. Runs until
interrupted.`,
	RunE: runCatalogWatch,
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogWatchCmd)
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path := cfg.Catalog.Path
	if len(args) == 1 {
		path = args[0]
	}

	snap, err := catalog.Load(path)
	if err != nil {
		var cerr *catalog.CatalogError
		if errors.As(err, &cerr) {
			fmt.Printf("%s %s\n", badgeBlocked.Render("INVALID"), path)
			for _, issue := range cerr.Issues {
				fmt.Printf("  %s %s\n", styleReason.Render("✗"), issue)
			}
			exitWith(exitError)
		}
		return err
	}

	info := snap.Info()
	if jsonOutput {
		return printJSON(info)
	}
	fmt.Printf("%s %s\n", badgeReady.Render("OK"), path)
	fmt.Printf("%s %s\n", styleLabel.Render("version"), info.Version)
	fmt.Printf("%s %d\n", styleLabel.Render("intents"), info.Intents)
	if len(info.Locales) > 0 {
		fmt.Printf("%s %s\n", styleLabel.Render("locales"), strings.Join(info.Locales, ", "))
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	snap, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	if jsonOutput {
		type row struct {
			ID      string   `json:"id"`
			Trigger string   `json:"trigger"`
			Command string   `json:"command"`
			Locales []string `json:"locales,omitempty"`
		}
		rows := make([]row, 0, len(snap.Intents()))
		for _, in := range snap.Intents() {
			rows = append(rows, row{
				ID:      in.ID,
				Trigger: intentTrigger(in),
				Command: in.CommandTemplate,
				Locales: in.LocalePriority,
			})
		}
		return printJSON(rows)
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	colID := lipgloss.NewStyle().Width(18)
	colTrigger := lipgloss.NewStyle().Width(34)

	fmt.Printf("catalog %s (%d intents)\n\n", snap.Version(), len(snap.Intents()))
	fmt.Printf("%s%s%s\n",
		header.Width(18).Render("ID"),
		header.Width(34).Render("TRIGGER"),
		header.Render("COMMAND"))
	for _, in := range snap.Intents() {
		fmt.Printf("%s%s%s\n",
			colID.Render(in.ID),
			colTrigger.Render(intentTrigger(in)),
			styleCommand.Render(in.CommandTemplate))
	}
	return nil
}

// intentTrigger summarizes how an intent matches, for listings.
func intentTrigger(in *catalog.CompiledIntent) string {
	if len(in.Phrases) > 0 {
		t := in.Phrases[0]
		if len(in.Phrases) > 1 || in.Pattern != "" {
			t += " …"
		}
		return t
	}
	return in.Pattern
}

func runCatalogWatch(cmd *cobra.Command, args []string) error {
	store, err := catalog.Open(cfg.Catalog.Path, logger.Named("catalog"))
	if err != nil {
		return err
	}

	watcher, err := catalog.NewWatcher(store, logger.Named("watcher"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	info := store.Current().Info()
	fmt.Printf("watching %s (version %s, %d intents), Ctrl+C to stop\n",
		cfg.Catalog.Path, info.Version, info.Intents)

	if err := watcher.Watch(ctx); err != nil {
		return err
	}

	stats := watcher.Stats()
	logger.Info("watch finished",
		zap.Int("reloads", stats.Reloads),
		zap.Int("failures", stats.Failures))
	fmt.Printf("reloads: %d ok, %d rejected\n", stats.Reloads, stats.Failures)
	return nil
}
