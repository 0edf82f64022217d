// Package suite discovers test case directories and runs them one at a
// time.
package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CyanogenMod/android-frameworks-compile-slang/config"
	"github.com/CyanogenMod/android-frameworks-compile-slang/executor"
	"github.com/CyanogenMod/android-frameworks-compile-slang/model"
)

// ErrInvalidSelection is returned when an explicitly selected test does not
// name an existing directory. Nothing is run in that case.
var ErrInvalidSelection = errors.New("invalid test selection")

// ErrEveryCaseErrored is returned alongside the report when each executed
// case failed with a harness error, which usually means the compiler is
// missing rather than broken.
var ErrEveryCaseErrored = errors.New("harness error in every test case")

type Suite struct {
	logger   zerolog.Logger
	cfg      config.Config
	executor *executor.Executor
}

func New(logger zerolog.Logger, cfg config.Config) *Suite {
	return &Suite{
		logger:   logger,
		cfg:      cfg,
		executor: executor.New(logger, cfg),
	}
}

// Discover returns the test cases to run. An explicit selection is used as
// given, in order. Otherwise every subdirectory of the root whose name
// starts with P_ or F_ is returned in directory order; disabled (D_) and
// other directories are only run when selected explicitly.
func (s *Suite) Discover() ([]model.TestCase, error) {
	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test root: %w", err)
	}

	if len(s.cfg.Selected) > 0 {
		return s.selected(root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read test root: %w", err)
	}

	var cases []model.TestCase
	for _, entry := range entries {
		name := entry.Name()
		if !isDir(filepath.Join(root, name)) {
			continue
		}
		if model.Classify(name) == model.Unclassified {
			s.logger.Debug().Str("dir", name).Msg("Skipping directory without test prefix")
			continue
		}
		cases = append(cases, model.NewTestCase(root, name))
	}

	return cases, nil
}

func (s *Suite) selected(root string) ([]model.TestCase, error) {
	var (
		cases   []model.TestCase
		missing []string
	)

	for _, name := range s.cfg.Selected {
		tc := model.NewTestCase(root, name)
		if !isDir(tc.Dir) {
			missing = append(missing, name)
			continue
		}
		cases = append(cases, tc)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no such test directory: %s", ErrInvalidSelection, strings.Join(missing, ", "))
	}

	return cases, nil
}

// Run executes the discovered test cases sequentially and aggregates their
// verdicts. Discovery errors abort before anything runs. Cancelling ctx
// stops the suite before the next case starts.
func (s *Suite) Run(ctx context.Context) (*model.Report, error) {
	cases, err := s.Discover()
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("count", len(cases)).Msg("Discovered test cases")

	report := &model.Report{}
	var firstErr error
	errored := 0

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("test run interrupted: %w", err)
		}

		run := s.executor.Run(ctx, tc)
		report.Add(run)

		if run.Err != nil {
			errored++
			if firstErr == nil {
				firstErr = run.Err
			}
		}
	}

	if errored > 0 && errored == report.Total() {
		return report, fmt.Errorf("%w: %w", ErrEveryCaseErrored, firstErr)
	}

	return report, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
