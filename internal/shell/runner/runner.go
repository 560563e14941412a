// Package runner executes external commands for the pipeline and returns
// typed results. Every step goes through the Runner interface so tests can
// inject a fake and never shell out.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Runner Errors
// =============================================================================

var (
	// ErrNotFound is returned by LookPath when a binary does not resolve.
	ErrNotFound = errors.New("executable not found on PATH")

	// ErrEmptyCommand is returned when a command has no argv.
	ErrEmptyCommand = errors.New("command has no argv")
)

// =============================================================================
// Command and Result
// =============================================================================

// Command is one external command invocation. Env is the full child
// environment (os.Environ form); when set, argv[0] is resolved against the
// PATH inside Env rather than the pipeline process's own PATH, which is what
// makes environment activation effective.
type Command struct {
	Argv []string
	Dir  string
	Env  []string

	// Interactive inherits the operator's stdio instead of capturing output.
	// Used for login flows that block on human input.
	Interactive bool
}

// Result captures the typed outcome of one command: exit status, combined
// captured output, and wall-clock elapsed time.
type Result struct {
	ExitCode int
	Output   string
	Elapsed  time.Duration
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// =============================================================================
// Runner Interface
// =============================================================================

// Runner executes commands and resolves binaries.
type Runner interface {
	// Run executes the command to completion. A non-zero exit is not an
	// error; it is reported through Result.ExitCode. The error return is
	// reserved for commands that could not be started or were canceled.
	Run(ctx context.Context, cmd Command) (Result, error)

	// LookPath resolves a binary name against the given environment's PATH
	// (or the process PATH when env is nil). Returns ErrNotFound when the
	// binary does not resolve.
	LookPath(name string, env []string) (string, error)
}

// =============================================================================
// Exec Runner
// =============================================================================

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates the process-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Argv) == 0 {
		return Result{ExitCode: -1}, ErrEmptyCommand
	}

	name := cmd.Argv[0]
	if !strings.ContainsRune(name, os.PathSeparator) && cmd.Env != nil {
		if resolved, err := r.LookPath(name, cmd.Env); err == nil {
			name = resolved
		}
	}

	c := exec.CommandContext(ctx, name, cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var buf bytes.Buffer
	if cmd.Interactive {
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = &buf
		c.Stderr = &buf
	}

	start := time.Now()
	err := c.Run()
	res := Result{
		Output:  buf.String(),
		Elapsed: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}

// LookPath implements Runner. Resolution walks the PATH carried in env so
// that lookups inside an activated environment see its bin directory first.
func (r *ExecRunner) LookPath(name string, env []string) (string, error) {
	if env == nil {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", ErrNotFound
		}
		return path, nil
	}

	for _, dir := range strings.Split(envValue(env, "PATH"), string(filepath.ListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

func envValue(env []string, key string) string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):]
		}
	}
	return ""
}
