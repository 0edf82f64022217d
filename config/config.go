// Package config holds the settings for a single harness invocation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UnclassifiedPolicy decides how a test directory without a P_ or F_
// prefix is judged.
type UnclassifiedPolicy string

const (
	// UnclassifiedFail fails the case regardless of the compiler result.
	UnclassifiedFail UnclassifiedPolicy = "fail"
	// UnclassifiedExpectSuccess treats the case like a P_ directory.
	UnclassifiedExpectSuccess UnclassifiedPolicy = "expect-success"
)

// Relative paths are resolved against the test case directory because the
// compiler runs there.
const (
	DefaultCompiler     = "../../../../../out/host/linux-x86/bin/llvm-rs-cc"
	DefaultIncludeDir   = "../../../../../frameworks/base/libs/rs/scriptc/"
	DefaultOutputDir    = "tmp/"
	DefaultSourceExt    = ".rs"
	DefaultStdoutFile   = "stdout.txt"
	DefaultStderrFile   = "stderr.txt"
	DefaultExpectSuffix = ".expect"
)

// Config is built once by the command line front end and passed by value
// to the suite driver and executor.
type Config struct {
	// Directory that holds the test case directories
	Root string `yaml:"-"`
	// 0 prints only the summary, 1 adds per-case progress, 2 adds command lines
	Verbosity int `yaml:"-"`
	// Test directory names to run; empty runs every discoverable case
	Selected []string `yaml:"-"`

	Cleanup      bool               `yaml:"cleanup"`
	Compiler     string             `yaml:"compiler"`
	OutputDir    string             `yaml:"output_dir"`
	IncludeDir   string             `yaml:"include_dir"`
	SourceExt    string             `yaml:"source_ext"`
	StdoutFile   string             `yaml:"stdout_file"`
	StderrFile   string             `yaml:"stderr_file"`
	ExpectSuffix string             `yaml:"expect_suffix"`
	Unclassified UnclassifiedPolicy `yaml:"unclassified"`
	// Zero waits for the compiler forever
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the settings of the historical harness.
func Default() Config {
	return Config{
		Root:         ".",
		Cleanup:      true,
		Compiler:     DefaultCompiler,
		OutputDir:    DefaultOutputDir,
		IncludeDir:   DefaultIncludeDir,
		SourceExt:    DefaultSourceExt,
		StdoutFile:   DefaultStdoutFile,
		StderrFile:   DefaultStderrFile,
		ExpectSuffix: DefaultExpectSuffix,
		Unclassified: UnclassifiedFail,
	}
}

// Load reads a YAML file on top of the defaults. Keys that are absent keep
// their default value; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings before any test case runs.
func (c Config) Validate() error {
	var problems []string

	if c.Verbosity < 0 {
		problems = append(problems, "verbosity must not be negative")
	}
	if c.Compiler == "" {
		problems = append(problems, "compiler path is empty")
	}
	if c.SourceExt == "" {
		problems = append(problems, "source extension is empty")
	}
	if c.ExpectSuffix == "" {
		problems = append(problems, "expect suffix is empty")
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}

	// the output directory is removed recursively during cleanup
	out := filepath.Clean(c.OutputDir)
	if c.OutputDir == "" || filepath.IsAbs(out) || out == "." || out == ".." || strings.HasPrefix(out, ".."+string(filepath.Separator)) {
		problems = append(problems, fmt.Sprintf("output directory %q must be a subdirectory of the test case", c.OutputDir))
	}

	for _, name := range []string{c.StdoutFile, c.StderrFile} {
		if name == "" || filepath.Base(name) != name {
			problems = append(problems, fmt.Sprintf("capture file %q must be a plain file name", name))
		}
	}
	if c.StdoutFile != "" && c.StdoutFile == c.StderrFile {
		problems = append(problems, "stdout and stderr capture files must differ")
	}

	switch c.Unclassified {
	case UnclassifiedFail, UnclassifiedExpectSuccess:
	default:
		problems = append(problems, fmt.Sprintf("unknown unclassified policy %q (want %q or %q)", c.Unclassified, UnclassifiedFail, UnclassifiedExpectSuccess))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CompilerArgs builds the compiler command line for the given sources. The
// first element is the compiler itself.
func (c Config) CompilerArgs(sources []string) []string {
	args := []string{c.Compiler, "-o", c.OutputDir, "-p", c.OutputDir}
	if c.IncludeDir != "" {
		args = append(args, "-I", c.IncludeDir)
	}
	return append(args, sources...)
}
