package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/CyanogenMod/android-frameworks-compile-slang/config"
	"github.com/CyanogenMod/android-frameworks-compile-slang/suite"
)

const AppName = "rstest"

// DefaultConfigFile is loaded from the test root when --config is not given.
const DefaultConfigFile = "rstest.yaml"

var (
	// ErrUsage marks malformed arguments or settings. Nothing has run.
	ErrUsage = errors.New("usage error")
	// ErrTestsFailed is returned after the summary when any test failed.
	ErrTestsFailed = errors.New("one or more tests failed")
)

type App struct {
	cli    *cli.App
	stdout io.Writer
	stderr io.Writer
}

func New() *App {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates an App that prints the summary to stdout and logs
// and usage to stderr.
func NewWithWriters(stdout, stderr io.Writer) *App {
	app := &App{
		stdout: stdout,
		stderr: stderr,
	}
	app.cli = &cli.App{
		Name:      AppName,
		Usage:     "Run the compiler conformance tests in the current directory",
		UsageText: AppName + " [-h|--help] [-v|--verbose]... [-n|--no-cleanup] [TESTNAME...]",
		Description: `Each test is a directory. Directories starting with P_ must compile
cleanly, directories starting with F_ must be rejected by the compiler.
The compiler's stdout and stderr are compared byte for byte with
stdout.txt.expect and stderr.txt.expect in the test directory.

Without TESTNAME every P_ and F_ directory is run. Other directories,
for example disabled D_ tests, only run when named explicitly.`,
		HideHelpCommand:        true,
		HideVersion:            true,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Increase verbosity (once: per-test progress and mismatches, twice: compiler command lines)",
			},
			// no -v alias, that is --verbose
			&cli.BoolFlag{
				Name:  "version",
				Usage: "Print the version",
			},
			&cli.BoolFlag{
				Name:    "no-cleanup",
				Aliases: []string{"n"},
				Usage:   "Keep captured output and compiler artifacts for inspection",
			},
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"C"},
				Usage:   "Directory that holds the test directories",
				Value:   ".",
			},
			&cli.PathFlag{
				Name:    "config",
				Usage:   "YAML settings file (default: " + DefaultConfigFile + " in the test directory root, if present)",
				EnvVars: []string{"RSTEST_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "compiler",
				Usage:   "Compiler executable, relative paths are resolved from each test directory",
				EnvVars: []string{"RSTEST_COMPILER"},
			},
			&cli.StringFlag{
				Name:    "include-dir",
				Usage:   "Include search path passed to the compiler with -I",
				EnvVars: []string{"RSTEST_INCLUDE_DIR"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Fail a test when the compiler runs longer than this (0 waits forever)",
				EnvVars: []string{"RSTEST_TIMEOUT"},
			},
		},
		Action: app.run,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		},
	}
	return app
}

// Run parses args and runs the selected tests. It returns ErrTestsFailed
// if any test failed.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.cli.RunContext(ctx, args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}

func (a *App) run(ctx *cli.Context) error {
	if ctx.Bool("version") {
		cli.ShowVersion(ctx)
		return nil
	}

	cfg, err := a.buildConfig(ctx)
	if err != nil {
		return err
	}

	logger := a.newLogger(cfg.Verbosity)
	logger.Debug().
		Str("root", cfg.Root).
		Str("compiler", cfg.Compiler).
		Bool("cleanup", cfg.Cleanup).
		Strs("selected", cfg.Selected).
		Msg("Starting test run")

	report, err := suite.New(logger, cfg).Run(ctx.Context)
	if errors.Is(err, suite.ErrInvalidSelection) {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if report != nil {
		a.printReport(report)
	}
	if err != nil {
		return err
	}

	if !report.OK() {
		return ErrTestsFailed
	}
	return nil
}

func (a *App) buildConfig(ctx *cli.Context) (config.Config, error) {
	root := ctx.String("directory")

	cfg := config.Default()
	configPath := ctx.Path("config")
	if configPath == "" {
		if candidate := filepath.Join(root, DefaultConfigFile); fileExists(candidate) {
			configPath = candidate
		}
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cfg = loaded
	}

	cfg.Root = root
	cfg.Verbosity = ctx.Count("verbose")
	if ctx.Bool("no-cleanup") {
		cfg.Cleanup = false
	}
	if ctx.IsSet("compiler") {
		cfg.Compiler = ctx.String("compiler")
	}
	if ctx.IsSet("include-dir") {
		cfg.IncludeDir = ctx.String("include-dir")
	}
	if ctx.IsSet("timeout") {
		cfg.Timeout = ctx.Duration("timeout")
	}

	for _, arg := range ctx.Args().Slice() {
		if strings.HasPrefix(arg, "-") {
			return cfg, fmt.Errorf("%w: flags must precede test names, got %q", ErrUsage, arg)
		}
		cfg.Selected = append(cfg.Selected, arg)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return cfg, nil
}

func (a *App) newLogger(verbosity int) zerolog.Logger {
	level := zerolog.Disabled
	switch {
	case verbosity >= 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}

	noColor := true
	if f, ok := a.stderr.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        a.stderr,
		TimeFormat: time.RFC3339Nano,
		NoColor:    noColor,
	}).Level(level).With().Timestamp().Logger()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
