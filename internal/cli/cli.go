package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/knltb-stats/internal/config"
	"github.com/pfrederiksen/knltb-stats/internal/fetch"
	"github.com/pfrederiksen/knltb-stats/internal/filter"
	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/sink"
	"github.com/pfrederiksen/knltb-stats/internal/storage"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitNewMatches = 2
)

type flags struct {
	config      string
	dataDir     string
	format      string
	logLevel    string
	sqlite      string
	metricsFile string
	delay       time.Duration
	verbose     bool
	noArchive   bool

	// players
	matches  bool
	refresh  bool
	notify   bool
	dryRun   bool
	period   string
	events   []string
	types    []string
	weekends bool

	// competitions and replay
	competition   string
	association   string
	icsDir        string
	replayMatches bool
}

// app is the state of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer
	flags  flags

	// fetchOptions lets tests point the client at a local server.
	fetchOptions func(*fetch.Options)

	cfg    *config.Config
	store  *storage.Storage
	client *fetch.Client
	sink   sink.Sink
	filter *filter.Filter

	newMatches int
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knltb-stats",
		Short: "Collect KNLTB tennis standings and player statistics",
		Long: `A CLI tool to collect standings, fixtures, ratings and match histories
from the public KNLTB pages. New matches of tracked players are reported
across runs and can be announced on Twitter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "Config file (default "+config.DefaultPath+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", storage.DefaultDataDir, "Data directory for snapshots and archived pages")
	pf.StringVar(&a.flags.format, "format", "text", "Output format: text or json")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&a.flags.sqlite, "sqlite", "", "Also store results in this SQLite database")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	pf.DurationVar(&a.flags.delay, "delay", fetch.DefaultDelay, "Pause between two requests")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "Enable verbose output and debug logging")
	pf.BoolVar(&a.flags.noArchive, "no-archive", false, "Do not archive fetched pages")

	cmd.AddCommand(newPlayersCmd(a), newCompetitionsCmd(a), newReplayCmd(a))
	return cmd
}

// setup loads the configuration and opens everything a command needs.
// Flags that were set explicitly win over the config file and environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Locate(a.flags.config))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("data-dir") {
		cfg.DataDir = a.flags.dataDir
	}
	if f.Changed("format") {
		cfg.Format = a.flags.format
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	} else if a.flags.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}
	if f.Changed("sqlite") {
		cfg.SQLitePath = a.flags.sqlite
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = a.flags.metricsFile
	}
	if f.Changed("delay") {
		cfg.Delay = a.flags.delay
	}
	if a.flags.noArchive {
		cfg.Archive = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger.SetDefault(logger.New(cfg.Level(), a.errOut))
	logger.Debug("Loaded configuration", logger.Fields{
		"data_dir": cfg.DataDir,
		"format":   cfg.Format,
		"players":  len(cfg.Players),
	})

	a.store, err = storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	opts := fetch.Options{
		BaseURL: cfg.BaseURL,
		Delay:   cfg.Delay,
		Retries: cfg.Retries,
	}
	if cfg.Archive {
		opts.Archiver = a.store
	}
	if a.fetchOptions != nil {
		a.fetchOptions(&opts)
	}
	a.client = fetch.New(opts)

	return a.openSinks(cmd.Context())
}

func (a *app) openSinks(ctx context.Context) error {
	w, err := sink.NewWriter(a.out, a.cfg.OutputFormat(), a.flags.verbose)
	if err != nil {
		return err
	}
	if a.cfg.SQLitePath == "" {
		a.sink = w
		return nil
	}

	db, err := sink.OpenSQLite(ctx, a.cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	logger.Info("Opened database", logger.Fields{"path": a.cfg.SQLitePath, "run": db.RunID()})
	a.sink = sink.Multi{w, db}
	return nil
}

// teardown closes the sinks and leaves the metrics behind.
func (a *app) teardown() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			logger.Error("Closing output failed", nil, err)
		}
	}
	if a.cfg != nil && a.cfg.MetricsFile != "" {
		if err := logger.WriteMetricsTextfile(a.cfg.MetricsFile); err != nil {
			logger.Error("Writing metrics failed", logger.Fields{"path": a.cfg.MetricsFile}, err)
		}
	}
	logger.Debug("Run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
}

// command wraps a run function with setup and teardown.
func (a *app) command(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		defer a.teardown()
		return run(cmd, args)
	}
}

// run executes the command line and returns the process exit code.
func run(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
		return ExitError
	}
	if a.newMatches > 0 {
		return ExitNewMatches
	}
	return ExitSuccess
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(&app{out: os.Stdout, errOut: os.Stderr}, os.Args[1:]))
}
