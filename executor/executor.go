// Package executor runs the compiler under test against a single test case
// directory and judges the result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/CyanogenMod/android-frameworks-compile-slang/config"
	"github.com/CyanogenMod/android-frameworks-compile-slang/golden"
	"github.com/CyanogenMod/android-frameworks-compile-slang/model"
)

type Executor struct {
	logger zerolog.Logger
	cfg    config.Config
}

func New(logger zerolog.Logger, cfg config.Config) *Executor {
	return &Executor{
		logger: logger,
		cfg:    cfg,
	}
}

// Run executes one test case end to end. It never changes the working
// directory of the harness: the compiler runs with the test case directory
// as its working directory and capture files are addressed by their full
// path. Harness errors are recorded on the returned run, which then counts
// as failed.
func (e *Executor) Run(ctx context.Context, tc model.TestCase) model.TestRun {
	startTime := time.Now()

	e.logger.Info().Str("test", tc.Name).Msg("Testing")

	run := model.TestRun{
		Case:     tc,
		ExitCode: -1,
	}
	run.Err = e.execute(ctx, &run)
	run.Duration = time.Since(startTime)

	var logEvent *zerolog.Event
	if run.Err != nil {
		logEvent = e.logger.Error().Err(run.Err)
	} else {
		logEvent = e.logger.Info()
	}
	logEvent.
		Str("test", tc.Name).
		Bool("passed", run.Passed()).
		Int("exit_code", run.ExitCode).
		Dur("duration", run.Duration).
		Msg("Test finished")

	return run
}

func (e *Executor) execute(ctx context.Context, run *model.TestRun) error {
	tc := run.Case

	info, err := os.Stat(tc.Dir)
	if err != nil {
		return fmt.Errorf("failed to access test directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("test path %s is not a directory", tc.Dir)
	}

	expected := e.resolveOutcome(tc)

	sources, err := e.sources(tc.Dir)
	if err != nil {
		return err
	}
	run.Sources = sources
	run.Command = e.cfg.CompilerArgs(sources)

	stdoutPath := filepath.Join(tc.Dir, e.cfg.StdoutFile)
	stderrPath := filepath.Join(tc.Dir, e.cfg.StderrFile)

	exitCode, invokeErr := e.invoke(ctx, tc, run.Command, stdoutPath, stderrPath)

	var compareErr error
	if invokeErr == nil {
		run.ExitCode = exitCode
		run.OutcomeMatches = expected.Accepts(exitCode)
		if !run.OutcomeMatches {
			e.logOutcomeMismatch(tc, expected, exitCode)
		}

		var stdoutErr, stderrErr error
		run.StdoutMatches, stdoutErr = e.compare(tc, "stdout", stdoutPath)
		run.StderrMatches, stderrErr = e.compare(tc, "stderr", stderrPath)
		compareErr = errors.Join(stdoutErr, stderrErr)
	}

	var cleanupErr error
	if e.cfg.Cleanup {
		cleanupErr = e.cleanup(tc.Dir)
	} else {
		e.logger.Debug().Str("test", tc.Name).Msg("Keeping test artifacts (cleanup skipped)")
	}

	return errors.Join(invokeErr, compareErr, cleanupErr)
}

func (e *Executor) resolveOutcome(tc model.TestCase) model.Outcome {
	if tc.Expected != model.Unclassified {
		return tc.Expected
	}

	if e.cfg.Unclassified == config.UnclassifiedExpectSuccess {
		e.logger.Debug().Str("test", tc.Name).Msg("Treating unclassified test as expected success")
		return model.ExpectSuccess
	}

	e.logger.Info().
		Str("test", tc.Name).
		Msgf("Test directory name should start with %s or %s", model.FailPrefix, model.PassPrefix)
	return model.Unclassified
}

// sources lists the compiler inputs of a test case in lexical order so the
// command line does not depend on directory enumeration order.
func (e *Executor) sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, e.cfg.SourceExt) {
			continue
		}
		sources = append(sources, name)
	}
	sort.Strings(sources)

	return sources, nil
}

// invoke runs the compiler with fresh capture files attached and waits for
// it. Both files are closed before it returns so their content is complete
// on disk. A non-zero exit is a result, not an error.
func (e *Executor) invoke(ctx context.Context, tc model.TestCase, args []string, stdoutPath, stderrPath string) (int, error) {
	stdoutFile, err := os.Create(stdoutPath)
	if err != nil {
		return -1, fmt.Errorf("failed to create stdout capture: %w", err)
	}
	stderrFile, err := os.Create(stderrPath)
	if err != nil {
		_ = stdoutFile.Close()
		return -1, fmt.Errorf("failed to create stderr capture: %w", err)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = tc.Dir
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	e.logger.Debug().
		Str("test", tc.Name).
		Str("dir", tc.Dir).
		Str("command", shellescape.QuoteCommand(args)).
		Msg("Invoking compiler")

	runErr := cmd.Run()

	if err := errors.Join(stdoutFile.Close(), stderrFile.Close()); err != nil {
		return -1, fmt.Errorf("failed to close output captures: %w", err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return -1, fmt.Errorf("compiler did not finish within %s", e.cfg.Timeout)
		}
		return -1, fmt.Errorf("compiler run aborted: %w", ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("failed to execute compiler: %w", runErr)
	}

	return 0, nil
}

func (e *Executor) logOutcomeMismatch(tc model.TestCase, expected model.Outcome, exitCode int) {
	var msg string
	switch expected {
	case model.ExpectSuccess:
		msg = "Command failed on valid input"
	case model.ExpectFailure:
		msg = "Command passed on invalid input"
	default:
		return
	}
	e.logger.Info().Str("test", tc.Name).Int("exit_code", exitCode).Msg(msg)
}

func (e *Executor) compare(tc model.TestCase, stream, actual string) (bool, error) {
	expected := actual + e.cfg.ExpectSuffix

	equal, err := golden.Equal(actual, expected)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s: %w", stream, err)
	}

	if !equal && e.logger.GetLevel() <= zerolog.InfoLevel {
		e.logger.Info().
			Str("test", tc.Name).
			Str("diff", golden.Diff(actual, expected)).
			Msgf("%s is different", stream)
	}

	return equal, nil
}

// cleanup removes the capture files and the compiler output directory.
// Files that are already gone are not an error.
func (e *Executor) cleanup(dir string) error {
	var errs []error

	for _, name := range []string{e.cfg.StdoutFile, e.cfg.StderrFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", name, err))
		}
	}

	outputDir := filepath.Join(dir, e.cfg.OutputDir)
	if err := os.RemoveAll(outputDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove output directory: %w", err))
	}

	return errors.Join(errs...)
}
