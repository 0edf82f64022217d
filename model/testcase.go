package model

import (
	"path/filepath"
	"strings"
)

// Directory name prefixes that encode what a test case expects.
const (
	PassPrefix     = "P_"
	FailPrefix     = "F_"
	DisabledPrefix = "D_"
)

// Outcome is the compiler result a test case expects.
type Outcome uint8

const (
	Unclassified Outcome = iota
	ExpectSuccess
	ExpectFailure
)

func (o Outcome) String() string {
	switch o {
	case ExpectSuccess:
		return "expect-success"
	case ExpectFailure:
		return "expect-failure"
	default:
		return "unclassified"
	}
}

// Accepts reports whether a compiler exit code satisfies the outcome.
// Unclassified accepts nothing.
func (o Outcome) Accepts(exitCode int) bool {
	switch o {
	case ExpectSuccess:
		return exitCode == 0
	case ExpectFailure:
		return exitCode != 0
	default:
		return false
	}
}

// Classify derives the expected outcome from a test directory name.
// Only the last path element is inspected, so "./P_basic/" and "P_basic"
// classify the same way.
func Classify(name string) Outcome {
	base := filepath.Base(filepath.Clean(name))
	switch {
	case strings.HasPrefix(base, PassPrefix):
		return ExpectSuccess
	case strings.HasPrefix(base, FailPrefix):
		return ExpectFailure
	default:
		return Unclassified
	}
}

// TestCase is a directory holding the inputs and golden files for one
// compiler invocation.
type TestCase struct {
	// Name as discovered or selected on the command line
	Name string
	// Absolute path of the test case directory
	Dir string
	// Outcome derived from Name at discovery time
	Expected Outcome
}

// NewTestCase resolves name against root and classifies it.
func NewTestCase(root, name string) TestCase {
	dir := name
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, name)
	}
	return TestCase{
		Name:     name,
		Dir:      dir,
		Expected: Classify(name),
	}
}
