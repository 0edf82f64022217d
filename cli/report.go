package cli

// This file contains the summary printed after a test run.

import (
	"fmt"
	"strings"

	"github.com/CyanogenMod/android-frameworks-compile-slang/model"
)

// printReport writes the pass and fail counts, followed by the failed test
// names in execution order when there are any. It is printed at every
// verbosity level.
func (a *App) printReport(report *model.Report) {
	fmt.Fprintf(a.stdout, "Tests Passed: %d\n", report.Passed)
	fmt.Fprintf(a.stdout, "Tests Failed: %d\n", report.Failed)
	if len(report.Failures) > 0 {
		fmt.Fprintf(a.stdout, "Failures: %s\n", strings.Join(report.Failures, " "))
	}
}
