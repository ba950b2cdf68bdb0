package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hsmtools/hsmcheck/internal/catalog"
	"github.com/hsmtools/hsmcheck/internal/classify"
	"github.com/hsmtools/hsmcheck/internal/config"
	"github.com/hsmtools/hsmcheck/internal/db"
	"github.com/hsmtools/hsmcheck/internal/engine"
	"github.com/hsmtools/hsmcheck/internal/probe"
	"github.com/hsmtools/hsmcheck/internal/runner"
)

// Version is set at build time via -ldflags "-X github.com/hsmtools/hsmcheck/cmd.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hsmcheck",
	Short: "Health check for the SafeNet Luna PCI card",
	Long: `hsmcheck drives the vendor lunadiag utility through a battery of
diagnostic sub-tests and reduces the run to a single monitoring verdict:
one message line on stdout and the severity as the exit code
(0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN).

Set HSM_DEBUG=1 for verbose output.`,
	Run: runCheck,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().IntP("slot", "s", config.DefaultSlot, "PCI slot to test")
	rootCmd.Flags().IntP("cmd", "c", 0, "diagnostic command to run (0 = all tests)")
	rootCmd.Flags().String("diag-tool", "", "path to the lunadiag utility")
	rootCmd.Flags().Int("timeout", 0, "per-probe time limit in seconds")
	rootCmd.Flags().String("config", "", "YAML configuration file")
	rootCmd.Flags().BoolP("version", "v", false, "print version and exit")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose logging")
	rootCmd.PersistentFlags().String("history", "", "SQLite file recording past verdicts")
}

func runCheck(cmd *cobra.Command, args []string) {
	if v, _ := cmd.Flags().GetBool("version"); v {
		fmt.Printf("hsmcheck version %s\n", Version)
		return
	}
	setupLogging(cmd)

	cfg, err := buildConfig(cmd)
	if err != nil {
		verdictExit(probe.Verdict{Severity: probe.Unknown, Message: err.Error()})
	}

	cat := catalog.New(catalog.Options{
		StorageWarnPct: cfg.StorageWarnPct,
		StorageCritPct: cfg.StorageCritPct,
	})
	ids := cfg.ProbeIDs
	if len(ids) == 0 {
		ids = cat.IDs()
	}

	eng := engine.New(cat,
		runner.New(cfg.DiagTool, cfg.Slot, cfg.TimeLimit),
		classify.Classifier{TimeLimit: cfg.TimeLimit},
	)

	start := time.Now()
	verdict, err := eng.Evaluate(context.Background(), ids)
	if err != nil {
		verdict = probe.Verdict{Severity: probe.Unknown, Message: err.Error()}
	}

	recordHistory(cfg, verdict, time.Since(start))
	verdictExit(verdict)
}

func setupLogging(cmd *cobra.Command) {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug || os.Getenv("HSM_DEBUG") != "" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("debug logging enabled")
	} else {
		// Keep stderr clean for the monitoring system unless asked.
		slog.SetLogLoggerLevel(slog.LevelError)
	}
}

// buildConfig layers the optional YAML file over the defaults, then
// the flags over both, and validates the result.
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	if cmd.Flags().Changed("slot") {
		cfg.Slot, _ = cmd.Flags().GetInt("slot")
	}
	if cmd.Flags().Changed("diag-tool") {
		cfg.DiagTool, _ = cmd.Flags().GetString("diag-tool")
	}
	if cmd.Flags().Changed("timeout") {
		secs, _ := cmd.Flags().GetInt("timeout")
		cfg.TimeLimit = time.Duration(secs) * time.Second
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryPath, _ = cmd.Flags().GetString("history")
	}
	if n, _ := cmd.Flags().GetInt("cmd"); n != 0 {
		cfg.ProbeIDs = []int{n}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// recordHistory appends the verdict to the history database when one
// is configured. Failures are logged and swallowed: the monitoring
// output contract must not depend on local bookkeeping.
func recordHistory(cfg config.Config, v probe.Verdict, elapsed time.Duration) {
	if cfg.HistoryPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg.HistoryPath)
	if err != nil {
		slog.Error("open verdict history", "path", cfg.HistoryPath, "error", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, cfg.Slot, v, elapsed); err != nil {
		slog.Error("record verdict", "error", err)
	}
}

// verdictExit implements the output contract: exactly one line on
// stdout, then exit with the numeric severity.
func verdictExit(v probe.Verdict) {
	fmt.Println(v.Message)
	os.Exit(v.Severity.ExitCode())
}
