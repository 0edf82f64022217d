// Package golden compares captured compiler output with stored expected
// output.
package golden

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/go-cmp/cmp"
)

// Equal reports whether the files at actual and expected hold exactly the
// same bytes. A missing expected file is a mismatch, not an error. Failing
// to read actual is an error since the harness wrote it.
func Equal(actual, expected string) (bool, error) {
	got, err := os.ReadFile(actual)
	if err != nil {
		return false, fmt.Errorf("failed to read captured output: %w", err)
	}

	want, err := os.ReadFile(expected)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read expected output: %w", err)
	}

	return bytes.Equal(got, want), nil
}

// Diff renders a human readable difference between expected and actual
// for diagnostics. Lines prefixed with "-" are expected, "+" are actual.
// It never influences the verdict.
func Diff(actual, expected string) string {
	got, err := os.ReadFile(actual)
	if err != nil {
		return fmt.Sprintf("<unreadable %s: %v>", actual, err)
	}
	want, err := os.ReadFile(expected)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("<missing %s>", expected)
	}
	if err != nil {
		return fmt.Sprintf("<unreadable %s: %v>", expected, err)
	}
	return cmp.Diff(string(want), string(got))
}
