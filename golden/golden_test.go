package golden

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		expected string
		want     bool
	}{
		{name: "both empty", actual: "", expected: "", want: true},
		{name: "identical", actual: "error: foo\n", expected: "error: foo\n", want: true},
		{name: "different content", actual: "a\n", expected: "b\n", want: false},
		{name: "trailing newline", actual: "a\n", expected: "a", want: false},
		{name: "crlf is not normalized", actual: "a\r\n", expected: "a\n", want: false},
		{name: "trailing whitespace is not trimmed", actual: "a \n", expected: "a\n", want: false},
		{name: "binary", actual: "\x00\xff", expected: "\x00\xff", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			actual := writeFile(t, dir, "stdout.txt", tt.actual)
			writeFile(t, dir, "stdout.txt.expect", tt.expected)

			got, err := Equal(actual, actual+".expect")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqualMissingExpected(t *testing.T) {
	dir := t.TempDir()
	actual := writeFile(t, dir, "stderr.txt", "")

	got, err := Equal(actual, actual+".expect")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEqualMissingActual(t *testing.T) {
	dir := t.TempDir()
	expected := writeFile(t, dir, "stderr.txt.expect", "")

	_, err := Equal(filepath.Join(dir, "stderr.txt"), expected)
	require.Error(t, err)
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	actual := writeFile(t, dir, "stderr.txt", "error: unexpected token\n")
	writeFile(t, dir, "stderr.txt.expect", "error: missing semicolon\n")

	diff := Diff(actual, actual+".expect")
	assert.Contains(t, diff, "missing semicolon")
	assert.Contains(t, diff, "unexpected token")

	writeFile(t, dir, "same.txt", "x")
	writeFile(t, dir, "same.txt.expect", "x")
	assert.Empty(t, Diff(filepath.Join(dir, "same.txt"), filepath.Join(dir, "same.txt.expect")))

	assert.Contains(t, Diff(actual, filepath.Join(dir, "nope.expect")), "<missing")
}
