// Package main implements the pm CLI: a natural-language front door that
// routes utterances onto a fixed catalog of commands and executes them under
// a safety gate and confidence policy.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sheldon-92/personalmanager/internal/audit"
	"github.com/Sheldon-92/personalmanager/internal/catalog"
	"github.com/Sheldon-92/personalmanager/internal/config"
	"github.com/Sheldon-92/personalmanager/internal/executor"
	"github.com/Sheldon-92/personalmanager/internal/router"
	"github.com/Sheldon-92/personalmanager/internal/safety"
)

// Exit codes for scripting. Anything routed but refused exits non-zero so a
// wrapper can tell "declined to act" from "acted and failed".
const (
	exitOK        = 0
	exitError     = 1
	exitUnmatched = 2
	exitBlocked   = 3
)

var (
	// Global flags
	configPath  string
	catalogPath string
	localeFlag  string
	verbose     bool
	jsonOutput  bool

	// Loaded in PersistentPreRunE, shared by every subcommand
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pm",
	Short: "pm - natural language command router",
	Long: `pm turns natural language into vetted shell commands.

An utterance is matched against a versioned intent catalog, scored for
confidence, screened by a destructive-command gate, and only then executed.
Low confidence asks before running; recognized-but-dangerous input is
refused outright, never silently ignored.

Examples:
  pm route "今天的任务"
  pm run "记录 完成项目文档"
  pm safety check "rm -rf /"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if catalogPath != "" {
			cfg.Catalog.Path = catalogPath
		}
		if localeFlag != "" {
			cfg.Routing.Locale = localeFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if level, perr := zapcore.ParseLevel(cfg.Logging.Level); perr == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// versionCmd prints the build identity
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "pm.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Intent catalog file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "Preferred locale for tie-breaks (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(safetyCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired routing pipeline for one command invocation.
type app struct {
	router   *router.Router
	executor *executor.Executor
	metrics  *audit.Metrics
	recorder *audit.Dispatcher
}

// newApp assembles catalog, gate, audit sinks, router, and executor from the
// loaded configuration. Callers must Close it to flush audit sinks.
func newApp() (*app, error) {
	store, err := catalog.Open(cfg.Catalog.Path, logger.Named("catalog"))
	if err != nil {
		return nil, err
	}

	policy, err := router.NewPolicy(cfg.Routing.LowThreshold, cfg.Routing.HighThreshold)
	if err != nil {
		return nil, err
	}

	a := &app{}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit.Enabled {
		fileSink, err := audit.NewFileSink(cfg.Audit.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		sqliteSink, err := audit.NewSQLiteSink(cfg.Audit.DatabasePath)
		if err != nil {
			_ = fileSink.Close()
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		a.metrics = audit.NewMetrics()
		a.recorder = audit.NewDispatcher(logger.Named("audit"), fileSink, sqliteSink, a.metrics)
		recorder = a.recorder
	}

	gate := safety.NewGate(logger.Named("safety"))

	a.router = router.New(store, gate, router.Options{
		Locale:        cfg.Routing.Locale,
		Policy:        policy,
		MinConfidence: cfg.Routing.MinConfidence,
		Recorder:      recorder,
		Logger:        logger.Named("router"),
	})

	a.executor = executor.New(executor.Options{
		Shell:          cfg.Execution.Shell,
		Timeout:        cfg.GetExecTimeout(),
		MaxTimeout:     cfg.GetMaxTimeout(),
		MaxOutputBytes: cfg.Execution.MaxOutputBytes,
		WorkDir:        cfg.Execution.WorkingDirectory,
		AllowedEnv:     cfg.Execution.AllowedEnvVars,
	}, recorder, logger.Named("executor"))

	return a, nil
}

// Close flushes and closes the audit sinks.
func (a *app) Close() error {
	if a.recorder != nil {
		return a.recorder.Close()
	}
	return nil
}

// exitWith syncs the logger before a direct exit so buffered fields are not
// lost. Used by commands that report status through the exit code.
func exitWith(code int) {
	if logger != nil {
		_ = logger.Sync()
	}
	os.Exit(code)
}

// parseTimeout turns a --timeout flag into a duration, 0 meaning "use the
// configured default".
func parseTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", raw, err)
	}
	return d, nil
}
