package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/gnoverse/glint/formatter"
	"github.com/gnoverse/glint/lint"
	tt "github.com/gnoverse/glint/pkg/types"
)

// version is stamped by the release build.
var version = "dev"

// errFindings signals findings at or above the fail threshold. The report
// was already printed, so main only translates it into the exit code.
var errFindings = errors.New("findings at or above the fail threshold")

type rootOptions struct {
	configPath string
	jsonOut    bool
	outPath    string
	noColor    bool
	verbose    bool
	watch      bool
	jobs       int
	timeout    time.Duration
	failOn     string
	enable     []string
	disable    []string
	exclude    []string
	cacheDir   string
	noCache    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps the outcome to an exit code: 0 for a clean
// run, 1 for findings or runtime failures, 2 for configuration mistakes.
func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		switch {
		case errors.Is(err, errFindings):
			return 1
		case lint.IsConfigError(err):
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			return 2
		default:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "glint [paths...]",
		Short: "Lint Go and Gno source files",
		Long: `glint analyzes Go and Gno source trees and reports style and correctness
issues. Results are cached per file content, so unchanged files are not
re-analyzed on the next run.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runLint(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default probes .glint.yaml)")
	flags.BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	flags.StringVarP(&opts.outPath, "out", "o", "", "write the report to a file instead of stdout")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colorized output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "re-lint whenever the given paths change")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "number of files analyzed concurrently (default one per CPU)")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "abort the run after this long")
	flags.StringVar(&opts.failOn, "fail-on", "", "lowest severity that fails the run (note|warning|error)")
	flags.StringSliceVar(&opts.enable, "enable", nil, "enable rules that default to off")
	flags.StringSliceVar(&opts.disable, "disable", nil, "disable rules")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "glob patterns to skip")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "result cache directory")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRulesCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runLint(cmd *cobra.Command, opts *rootOptions, paths []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	if opts.watch && opts.outPath != "" {
		return lint.NewConfigError(errors.New("cannot combine --watch with --out"))
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if opts.noColor || opts.jsonOut || opts.outPath != "" || !interactive {
		color.NoColor = true
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runner, err := lint.NewRunner(cfg,
		lint.WithLogger(logger),
		lint.WithProgress(interactive && !opts.jsonOut && !opts.watch),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		return runWatch(ctx, runner, paths, opts.jsonOut)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	report, err := runner.Run(ctx, paths)
	if err != nil {
		return err
	}
	if err := emitReport(cmd, opts, report); err != nil {
		return err
	}
	if report.HasIssuesAtOrAbove(runner.FailOn()) {
		return errFindings
	}
	return nil
}

func emitReport(cmd *cobra.Command, opts *rootOptions, report *tt.Report) error {
	if opts.outPath == "" {
		return printReport(cmd.OutOrStdout(), report, opts.jsonOut)
	}
	f, err := os.Create(opts.outPath)
	if err != nil {
		return err
	}
	if err := printReport(f, report, opts.jsonOut); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// loadConfig reads the configuration file and layers the command line over
// it. An explicitly named config file must exist; the default probe may
// come up empty.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (lint.Config, error) {
	path := opts.configPath
	if path == "" {
		path = lint.DefaultConfigFile
	} else if _, err := os.Stat(path); err != nil {
		return lint.Config{}, lint.NewConfigError(err)
	}

	cfg, err := lint.LoadConfig(path)
	if err != nil {
		return lint.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("fail-on") {
		cfg.FailOn = opts.failOn
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if opts.noCache {
		cfg.NoCache = true
	}
	cfg.Enable = append(cfg.Enable, opts.enable...)
	cfg.Disable = append(cfg.Disable, opts.disable...)
	cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	return cfg, nil
}

func runWatch(ctx context.Context, runner *lint.Runner, paths []string, asJSON bool) error {
	watcher, err := lint.NewWatcher(runner)
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = watcher.Watch(ctx, paths, func(report *tt.Report) {
		if err := printReport(os.Stdout, report, asJSON); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printReport(w io.Writer, report *tt.Report, asJSON bool) error {
	if asJSON {
		out, err := formatter.FormatJSON(report)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	_, err := io.WriteString(w, formatter.FormatReport(report, sourceLines))
	return err
}

// sourceLines reloads a file for snippet rendering. Cached results skip
// analysis entirely, so the text is not in memory anymore.
func sourceLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Split(string(data), "\n")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if color.NoColor {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
