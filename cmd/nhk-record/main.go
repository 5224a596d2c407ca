// Package main provides the CLI entry point for nhk-record.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bietiekay/nhk-record/internal/config"
	"github.com/bietiekay/nhk-record/internal/discovery"
	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/metrics"
	"github.com/bietiekay/nhk-record/internal/recorder"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/util"
)

const (
	appName    = "nhk-record"
	appVersion = "1.0.0"
)

func main() {
	if err := CreateRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand. Config fields are bound
// directly so explicit CLI values beat the file and environment.
type rootFlags struct {
	cfg        *config.Config
	configFile string
	verbose    bool
	noLog      bool
	jsonOutput bool
}

// CreateRootCmd builds the command tree.
func CreateRootCmd() *cobra.Command {
	flags := &rootFlags{cfg: config.Default()}
	cfg := flags.cfg

	root := &cobra.Command{
		Use:           appName,
		Short:         "Record and trim programmes off the NHK World-Japan live stream",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", config.DefaultConfigFile, "Path to TOML configuration file")
	pf.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "Directory for finished recordings")
	pf.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Directory for raw captures (defaults to save dir)")
	pf.StringVar(&cfg.AssetsDir, "assets-dir", cfg.AssetsDir, "Directory holding boundary/banner/background reference art")
	pf.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory (defaults to save dir/logs)")
	pf.StringVar(&cfg.StreamURL, "stream-url", cfg.StreamURL, "HLS playlist URL")
	pf.Int64Var(&cfg.SafetyBufferMS, "safety-buffer-ms", cfg.SafetyBufferMS, "Capture padding before and after the scheduled airing")
	pf.Int64Var(&cfg.MinimumDurationMS, "minimum-duration-ms", cfg.MinimumDurationMS, "Skip airings shorter than this")
	pf.BoolVar(&cfg.TrimVideo, "trim-video", cfg.TrimVideo, "Trim captures to programme boundaries")
	pf.BoolVar(&cfg.CropVideo, "crop-video", cfg.CropVideo, "Correct partial-width segments")
	pf.BoolVar(&cfg.KeepUntrimmed, "keep-untrimmed", cfg.KeepUntrimmed, "Keep the raw capture next to the trimmed output")
	pf.IntVar(&cfg.ThreadLimit, "thread-limit", cfg.ThreadLimit, "FFmpeg thread cap during post-processing (0 = no cap)")
	pf.IntVar(&cfg.MinDiskGB, "min-disk-gb", cfg.MinDiskGB, "Refuse to record below this much free disk")
	pf.IntVar(&cfg.StreamRetryAttempts, "stream-retry-attempts", cfg.StreamRetryAttempts, "Stream probe attempts before giving up")
	pf.IntVar(&cfg.StreamRetryDelaySecs, "stream-retry-delay-secs", cfg.StreamRetryDelaySecs, "Delay between stream probe attempts")
	pf.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Expose Prometheus metrics on this address (empty = off)")
	pf.StringVar(&cfg.ScheduleBaseURL, "schedule-base-url", cfg.ScheduleBaseURL, "Programme guide API base URL")
	pf.StringSliceVar(&cfg.MatchPatterns, "match-patterns", cfg.MatchPatterns, "Case-insensitive title patterns to record")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flags.noLog, "no-log", false, "Disable log file creation")
	pf.BoolVar(&flags.jsonOutput, "json", false, "Emit progress as JSON lines")

	root.AddCommand(
		createRecordCmd(flags),
		createTrimCmd(flags),
		createScheduleCmd(flags),
		createVersionCmd(),
	)

	return root
}

// setup loads configuration for a subcommand invocation and wires
// logging and progress reporting.
func setup(flags *rootFlags, cmd *cobra.Command) (*config.Config, reporter.Reporter, func(), error) {
	cfg := flags.cfg
	if err := config.Load(cfg, flags.configFile, cmd); err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.Setup(cfg.GetLogDir(), flags.verbose, flags.noLog)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	cleanup := func() { _ = logger.Close() }

	var rep reporter.Reporter
	if flags.jsonOutput {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter()
		if path := logger.FilePath(); path != "" {
			fmt.Fprintf(os.Stderr, "Logging to %s\n", path)
		}
	}

	return cfg, rep, cleanup, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

func createRecordCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Watch the guide and record matching programmes",
		Long: `Watches the programme guide for titles matching the configured patterns,
records each match off the live stream with a safety buffer at both
ends, trims it back to programme content and validates the result.
Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, rep, cleanup, err := setup(flags, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := recorder.New(cfg, rep)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			// Pattern edits in the config file apply without a restart.
			if util.FileExists(flags.configFile) {
				watcher := config.NewWatcher(flags.configFile)
				watcher.OnReload(func(updated *config.Config) {
					if uerr := rec.UpdatePatterns(updated.MatchPatterns); uerr != nil {
						logging.Warn("ignoring patterns from reload", "error", uerr)
					}
				})
				if werr := watcher.Start(); werr != nil {
					logging.Warn("config watcher failed to start", "error", werr)
				} else {
					defer func() { _ = watcher.Stop() }()
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			if cfg.MetricsAddr != "" {
				g.Go(func() error {
					return metrics.ListenAndServe(gctx, cfg.MetricsAddr)
				})
			}
			g.Go(func() error {
				return rec.RunLoop(gctx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logging.Info("shut down cleanly")
			return nil
		},
	}
}

func createTrimCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "trim <file-or-directory>",
		Short: "Trim captures without recording",
		Long: `Post-processes raw captures left behind by an interrupted run: trims
each one back to programme content, applies crop correction and
validates the output. Inputs are never deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rep, cleanup, err := setup(flags, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			input, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid input path: %w", err)
			}
			info, err := os.Stat(input)
			if err != nil {
				return fmt.Errorf("input path does not exist: %s", input)
			}

			rec, err := recorder.New(cfg, rep)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if info.IsDir() {
				files, derr := discovery.FindRecordings(input)
				if derr != nil {
					return derr
				}
				return rec.ProcessFiles(ctx, files)
			}

			outcome, err := rec.ProcessFile(ctx, input)
			if err != nil {
				return err
			}
			rep.RecordingComplete(*outcome)
			rep.OperationComplete(fmt.Sprintf("Trimmed %s", util.GetFilename(input)))
			return nil
		},
	}
}

func createScheduleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show upcoming matching programmes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, cleanup, err := setup(flags, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := recorder.New(cfg, reporter.NullReporter{})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			upcoming, err := rec.UpcomingMatches(ctx)
			if err != nil {
				return err
			}

			if len(upcoming) == 0 {
				fmt.Println("No matching programmes in the next 24 hours.")
				return nil
			}

			fmt.Printf("Upcoming matches (%d):\n\n", len(upcoming))
			nowMS := time.Now().UnixMilli()
			for _, p := range upcoming {
				title := p.Title
				if p.Subtitle != "" {
					title += " - " + p.Subtitle
				}
				onAir := ""
				if p.StartMS <= nowMS {
					onAir = "  (on air)"
				}
				fmt.Printf("  %s  %s  %s%s\n",
					p.StartTime().Local().Format("2006-01-02 15:04"),
					util.FormatDuration(float64(p.DurationMS())/1000),
					title, onAir)
			}
			return nil
		},
	}
}

func createVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	}
}
