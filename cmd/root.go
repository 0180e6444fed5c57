package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/trackgen/internal/config"
	"github.com/telhawk-systems/trackgen/internal/logging"
	"github.com/telhawk-systems/trackgen/internal/metrics"
	"github.com/telhawk-systems/trackgen/pkg/output"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	format    string

	cfg      *config.Config
	ctx      context.Context
	log      *logging.Logger
	out      *output.Printer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// NewRootCmd builds the trackgen command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trackgen",
		Short: "Tracking payload generator",
		Long: `trackgen builds randomized tracking-event collections, serializes them
into the collector's binary body format and signs them with a shared secret.

Configuration cascade (priority order):
  1. Command-line flags
  2. TRACKGEN_* environment variables
  3. ./trackgen.yaml or ~/.trackgen/trackgen.yaml (or --config)
  4. Built-in defaults`,
		Version:           "0.1.0",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./trackgen.yaml or ~/.trackgen/trackgen.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json")
	pf.StringVarP(&a.format, "output", "o", "", "output format: json, yaml, table")

	root.AddCommand(
		newGenerateCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newInspectCmd(a),
	)

	return root
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	return run(NewRootCmd())
}

func run(root *cobra.Command) error {
	if err := root.Execute(); err != nil {
		output.New(root.OutOrStdout(), root.ErrOrStderr(), "").Error("%v", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags if provided
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if flags.Changed("output") {
		cfg.Output.Format = a.format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(a.log)
	a.out = output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output.Format)
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.ctx = logging.ContextWithRunID(ctx, uuid.NewString())

	return nil
}

// logSummary writes the run's counters at debug level.
func (a *app) logSummary() {
	samples, err := metrics.Summary(a.registry)
	if err != nil {
		a.log.WarnContext(a.ctx, "failed to gather metrics", logging.Error(err))
		return
	}
	for _, s := range samples {
		a.log.DebugContext(a.ctx, "metric", "name", s.Name, "value", s.Value)
	}
}
