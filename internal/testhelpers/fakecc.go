// Package testhelpers provides a fake compiler and fixture helpers for
// tests that drive the harness end to end.
//
// The fake compiler is the test binary itself: a package's TestMain calls
// MaybeRunFakeCompiler first, and FakeCompiler hands out the binary path
// with the environment switch set. When run as the compiler it behaves
// according to files in its working directory:
//
//	fake.exit    exit code (default 0)
//	fake.stdout  copied to standard output
//	fake.stderr  copied to standard error
//	fake.hang    if present, never exits
//
// It records its arguments one per line in fake.args and creates the
// directory given with -o, holding a single artifact.
package testhelpers

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

const FakeCompilerEnv = "RSTEST_FAKE_COMPILER"

// MaybeRunFakeCompiler turns the process into the fake compiler when the
// environment asks for it. It does not return in that case.
func MaybeRunFakeCompiler() {
	if os.Getenv(FakeCompilerEnv) != "1" {
		return
	}
	os.Exit(fakeCompiler(os.Args[1:]))
}

// FakeCompiler returns a compiler path that runs the fake compiler for the
// remainder of the test.
func FakeCompiler(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(FakeCompilerEnv, "1")
	return exe
}

func fakeCompiler(args []string) int {
	if err := os.WriteFile("fake.args", []byte(strings.Join(args, "\n")+"\n"), 0644); err != nil {
		return 100
	}

	for i := 0; i+1 < len(args); i++ {
		if args[i] != "-o" {
			continue
		}
		if err := os.MkdirAll(args[i+1], 0755); err != nil {
			return 101
		}
		if err := os.WriteFile(filepath.Join(args[i+1], "out.bc"), []byte("BC\xc0\xde"), 0644); err != nil {
			return 101
		}
	}

	if _, err := os.Stat("fake.hang"); err == nil {
		time.Sleep(time.Hour)
	}

	copyFile("fake.stdout", os.Stdout)
	copyFile("fake.stderr", os.Stderr)

	data, err := os.ReadFile("fake.exit")
	if err != nil {
		return 0
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 102
	}
	return code
}

func copyFile(name string, w io.Writer) {
	f, err := os.Open(name)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = io.Copy(w, f)
}

// WriteTree extracts a txtar archive below dir. File names in the archive
// are slash separated and relative to dir.
func WriteTree(t *testing.T, dir, archive string) {
	t.Helper()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, f.Data, 0644))
	}
}

// ReadLines returns the lines of a file without the trailing newline.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
