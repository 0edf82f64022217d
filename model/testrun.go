package model

import "time"

// TestRun is the verdict of executing a single test case.
type TestRun struct {
	Case TestCase
	// Sorted source files passed to the compiler (relative to Case.Dir)
	Sources []string
	// Full compiler command line
	Command []string
	// Exit code of the compiler, -1 if it never ran to completion
	ExitCode int
	// Whether ExitCode satisfied the expected outcome
	OutcomeMatches bool
	// Golden comparison results for each captured stream
	StdoutMatches bool
	StderrMatches bool
	// Harness-level failure while running the case (missing compiler,
	// unwritable capture file, failed cleanup, timeout)
	Err error
	// Wall time spent on the case
	Duration time.Duration
}

// Passed is derived from the exit code classification and both golden
// comparisons. A run that hit a harness error never passes.
func (r TestRun) Passed() bool {
	return r.Err == nil && r.OutcomeMatches && r.StdoutMatches && r.StderrMatches
}
