package domain

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
)

// =============================================================================
// Environment Errors
// =============================================================================

var (
	// ErrEnvDirEmpty is returned when an environment spec has no directory.
	ErrEnvDirEmpty = errors.New("environment directory is empty")

	// ErrEnvNotActivated is returned when an operation requires an activated
	// environment but the execution context was never derived from one.
	ErrEnvNotActivated = errors.New("environment is not activated")
)

// =============================================================================
// Execution Context
// =============================================================================

// ExecContext is the explicit execution context threaded through every
// pipeline step. It replaces ambient process state (shell "activation",
// working directory) with an immutable value: deriving methods return copies
// and never mutate the receiver.
type ExecContext struct {
	// WorkDir is the directory child commands run in.
	WorkDir string

	// Env is the full environment for child commands, os.Environ form.
	Env []string
}

// NewExecContext builds a context from a working directory and an environ
// snapshot. The snapshot is copied so later mutations of the source slice do
// not leak in.
func NewExecContext(workDir string, environ []string) ExecContext {
	env := make([]string, len(environ))
	copy(env, environ)
	return ExecContext{WorkDir: workDir, Env: env}
}

// Getenv returns the value of key in the context, or "" when unset.
func (c ExecContext) Getenv(key string) string {
	prefix := key + "="
	// Last assignment wins, matching os/exec semantics.
	for i := len(c.Env) - 1; i >= 0; i-- {
		if strings.HasPrefix(c.Env[i], prefix) {
			return c.Env[i][len(prefix):]
		}
	}
	return ""
}

// WithEnv returns a derived context with key set to value. An existing
// assignment is replaced, not shadowed.
func (c ExecContext) WithEnv(key, value string) ExecContext {
	out := c.clone()
	prefix := key + "="
	for i, kv := range out.Env {
		if strings.HasPrefix(kv, prefix) {
			out.Env[i] = prefix + value
			return out
		}
	}
	out.Env = append(out.Env, prefix+value)
	return out
}

// WithPathPrefix returns a derived context whose PATH starts with dir.
func (c ExecContext) WithPathPrefix(dir string) ExecContext {
	path := c.Getenv("PATH")
	if path == "" {
		return c.WithEnv("PATH", dir)
	}
	return c.WithEnv("PATH", dir+string(filepath.ListSeparator)+path)
}

// Activated reports whether this context was derived from an activated
// isolated environment.
func (c ExecContext) Activated() bool {
	return c.Getenv("VIRTUAL_ENV") != ""
}

func (c ExecContext) clone() ExecContext {
	env := make([]string, len(c.Env))
	copy(env, c.Env)
	return ExecContext{WorkDir: c.WorkDir, Env: env}
}

// =============================================================================
// Isolated Environment
// =============================================================================

// Environment describes an isolated Python runtime environment rooted at Dir.
// The zero value is invalid; use NewEnvironment.
type Environment struct {
	// Dir is the environment root, relative to the pipeline working directory
	// or absolute.
	Dir string

	// Interpreter is the base interpreter used to create the environment
	// (e.g., "python3").
	Interpreter string
}

// NewEnvironment validates and returns an environment spec.
func NewEnvironment(dir, interpreter string) (Environment, error) {
	if dir == "" {
		return Environment{}, ErrEnvDirEmpty
	}
	if interpreter == "" {
		interpreter = "python3"
	}
	return Environment{Dir: dir, Interpreter: interpreter}, nil
}

// BinDir returns the directory inside the environment that holds executables.
func (e Environment) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts")
	}
	return filepath.Join(e.Dir, "bin")
}

// InterpreterPath returns the path of the environment's own interpreter,
// used both for the validity probe and for running tooling inside it.
func (e Environment) InterpreterPath() string {
	name := "python"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(e.BinDir(), name)
}

// Activate derives an execution context bound to this environment: the
// environment's bin directory leads PATH and VIRTUAL_ENV is set, so
// interpreter and installer invocations resolve inside the environment
// rather than the ambient system one. The base context is not modified.
func (e Environment) Activate(base ExecContext) ExecContext {
	return base.
		WithPathPrefix(e.BinDir()).
		WithEnv("VIRTUAL_ENV", e.Dir)
}
