package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jupierce/lcov-summary/pkg/config"
	"github.com/jupierce/lcov-summary/pkg/coverage"
	"github.com/jupierce/lcov-summary/pkg/lcov"
	"github.com/jupierce/lcov-summary/pkg/log"
	"github.com/jupierce/lcov-summary/pkg/report"
)

var (
	// Input flags
	lcovPath    string
	inputFormat string
	configPath  string

	// Filter flags
	targets   []string
	matchMode string
	prefix    string
	extension string
	extra     string

	// Output flags
	outputFormat string
	width        int
	failUnder    float64
	verbosity    string
	logDir       string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "lcov-summary",
		Short: "Summarize LCOV line coverage for a chosen set of files",
		Long: `lcov-summary reads an LCOV report (coverage/lcov.info by default) and
prints per-file and total line coverage for the files you care about.

Select files either with an explicit target list (--target, repeatable) or
with a directory prefix plus one extra file (--prefix/--extra). Both can
also be set in a YAML file passed with --config; flags win over the file.`,
		Example: `  # Coverage for two files, suffix-matched against report paths
  lcov-summary --target lib/map/map_screen.dart --target lib/login_page.dart

  # Everything under lib/services plus one extra file
  lcov-summary --prefix lib/services/ --extra lib/main_testable.dart

  # Require exact path matches and emit CSV
  lcov-summary -c lcov-summary.yaml --match exact --format csv

  # Summarize a Go cover profile and fail below 80%
  lcov-summary -i coverage.out --prefix example.com/app/pkg/ --extension .go --fail-under 80`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReport,
	}
)

func init() {
	registerFlags(rootCmd)
}

// registerFlags binds the report flags to cmd, resetting them to their defaults.
func registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&lcovPath, "lcov", "i", config.DefaultLCOVPath, "Coverage report to read")
	cmd.Flags().StringVar(&inputFormat, "input-format", string(lcov.FormatAuto), "Report format (auto, lcov, goprofile)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "Target file path (repeatable, mutually exclusive with --prefix/--extra)")
	cmd.Flags().StringVar(&matchMode, "match", string(coverage.MatchSuffix), "Target match mode (suffix, segment, exact)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Directory prefix of files to include")
	cmd.Flags().StringVar(&extension, "extension", config.DefaultExtension, "Source file extension used with --prefix")
	cmd.Flags().StringVar(&extra, "extra", "", "Single extra file included with --prefix")

	cmd.Flags().StringVarP(&outputFormat, "format", "f", string(report.FormatText), "Output format (text, csv, json)")
	cmd.Flags().IntVar(&width, "width", report.DefaultWidth, "Width of the file column in text output")
	cmd.Flags().Float64Var(&failUnder, "fail-under", 0, "Exit non-zero when total coverage is below this percentage (0 disables)")
	cmd.PersistentFlags().StringVar(&verbosity, "verbosity", "info", "Log verbosity (error, info, debug, trace)")
	cmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write a log file into this directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	logger, err := createLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return generate(cfg, logger, cmd.OutOrStdout())
}

// createLogger creates the diagnostics logger; console output goes to w.
func createLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(verbosity)
	if err != nil {
		return nil, err
	}

	logger, err := log.New(level, logDir, w)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if path := logger.LogFile(); path != "" {
		logger.Info("Log file: %s", path)
	}
	return logger, nil
}

// loadConfig reads --config (if any) and applies the flags that were set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("lcov") {
		cfg.LCOVPath = lcovPath
	}
	if flags.Changed("input-format") {
		cfg.InputFormat = inputFormat
	}
	if flags.Changed("format") {
		cfg.Format = outputFormat
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("fail-under") {
		cfg.FailUnder = failUnder
	}
	if flags.Changed("match") {
		cfg.Filter.Match = matchMode
	}
	if flags.Changed("extension") {
		cfg.Filter.Extension = extension
	}

	// A filter chosen on the command line replaces the one from the file.
	targetsSet := flags.Changed("target")
	prefixSet := flags.Changed("prefix") || flags.Changed("extra")
	if targetsSet {
		cfg.Filter.Targets = targets
		if !prefixSet {
			cfg.Filter.Prefix, cfg.Filter.Extra = "", ""
		}
	}
	if prefixSet {
		if flags.Changed("prefix") {
			cfg.Filter.Prefix = prefix
		}
		if flags.Changed("extra") {
			cfg.Filter.Extra = extra
		}
		if !targetsSet {
			cfg.Filter.Targets = nil
		}
	}

	return cfg, nil
}

// generate loads the report, aggregates it and renders it to w.
func generate(cfg *config.Config, logger *log.Logger, w io.Writer) error {
	spec, err := cfg.FilterSpec()
	if err != nil {
		return err
	}
	inFormat, err := lcov.ParseFormat(cfg.InputFormat)
	if err != nil {
		return err
	}
	outFormat, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	logger.Debug("Reading %s (format: %s)", cfg.LCOVPath, inFormat)
	sections, err := lcov.Load(cfg.LCOVPath, inFormat)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	logger.Debug("Parsed %d section(s), filter: %s", len(sections), spec)
	for _, s := range sections {
		logger.Trace("  %s: %d/%d lines executed", s.Path, s.Executed, s.Total)
	}

	r := coverage.Aggregate(cfg.LCOVPath, sections, spec)
	for _, target := range r.Missing() {
		logger.Warning("Target not found in %s: %s", cfg.LCOVPath, target)
	}

	if err := report.Render(w, r, report.Options{Format: outFormat, Width: cfg.Width}); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return r.Check(cfg.FailUnder)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
