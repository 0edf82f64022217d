package suite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyanogenMod/android-frameworks-compile-slang/config"
	"github.com/CyanogenMod/android-frameworks-compile-slang/internal/testhelpers"
	"github.com/CyanogenMod/android-frameworks-compile-slang/model"
)

func TestMain(m *testing.M) {
	testhelpers.MaybeRunFakeCompiler()
	os.Exit(m.Run())
}

const fixture = `
-- P_basic/x.rs --
#pragma version(1)
-- P_basic/stdout.txt.expect --
-- P_basic/stderr.txt.expect --
-- F_bad_syntax/bad.rs --
int x = ;
-- F_bad_syntax/fake.exit --
2
-- F_bad_syntax/fake.stderr --
bad.rs:1:9: error: expected expression
-- F_bad_syntax/stdout.txt.expect --
-- F_bad_syntax/stderr.txt.expect --
bad.rs:1:9: error: expected expression
-- P_regressed/y.rs --
-- P_regressed/fake.exit --
1
-- P_regressed/stdout.txt.expect --
-- P_regressed/stderr.txt.expect --
-- D_wip/z.rs --
-- scratch/notes.txt --
-- P_not_a_dir --
`

func newTestSuite(t *testing.T, mutate func(*config.Config)) *Suite {
	t.Helper()
	root := t.TempDir()
	testhelpers.WriteTree(t, root, fixture)

	cfg := config.Default()
	cfg.Root = root
	cfg.Compiler = testhelpers.FakeCompiler(t)
	if mutate != nil {
		mutate(&cfg)
	}
	return New(zerolog.Nop(), cfg)
}

func caseNames(cases []model.TestCase) []string {
	names := make([]string, 0, len(cases))
	for _, tc := range cases {
		names = append(names, tc.Name)
	}
	return names
}

func TestDiscover(t *testing.T) {
	s := newTestSuite(t, nil)

	cases, err := s.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"F_bad_syntax", "P_basic", "P_regressed"}, caseNames(cases))

	for _, tc := range cases {
		assert.True(t, filepath.IsAbs(tc.Dir), tc.Dir)
	}
}

func TestDiscoverSelected(t *testing.T) {
	s := newTestSuite(t, func(c *config.Config) {
		c.Selected = []string{"P_regressed", "D_wip", "F_bad_syntax"}
	})

	cases, err := s.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"P_regressed", "D_wip", "F_bad_syntax"}, caseNames(cases))
	assert.Equal(t, model.Unclassified, cases[1].Expected)
}

func TestDiscoverInvalidSelection(t *testing.T) {
	s := newTestSuite(t, func(c *config.Config) {
		c.Selected = []string{"P_basic", "F_bad_syntax", "nonexistent_dir", "P_not_a_dir"}
	})

	_, err := s.Discover()
	require.ErrorIs(t, err, ErrInvalidSelection)
	assert.Contains(t, err.Error(), "nonexistent_dir")
	assert.Contains(t, err.Error(), "P_not_a_dir")

	report, err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidSelection)
	assert.Nil(t, report)

	// nothing ran
	assert.NoFileExists(t, filepath.Join(s.cfg.Root, "P_basic", "fake.args"))
}

func TestRun(t *testing.T) {
	s := newTestSuite(t, nil)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"P_regressed"}, report.Failures)

	assert.NoFileExists(t, filepath.Join(s.cfg.Root, "D_wip", "fake.args"))
}

func TestRunSelectedKeepsOrder(t *testing.T) {
	s := newTestSuite(t, func(c *config.Config) {
		c.Selected = []string{"P_regressed", "D_wip", "P_basic"}
	})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, []string{"P_regressed", "D_wip"}, report.Failures)
}

func TestRunEveryCaseErrored(t *testing.T) {
	s := newTestSuite(t, func(c *config.Config) {
		c.Compiler = filepath.Join(c.Root, "missing", "llvm-rs-cc")
	})

	report, err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrEveryCaseErrored)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Passed)
	assert.Equal(t, 3, report.Failed)
}

func TestRunCancelled(t *testing.T) {
	s := newTestSuite(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Total())
}
