// Package runnertest provides a scripted fake Runner for step and pipeline
// tests, so nothing shells out under test.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/bitebase/deployctl/internal/shell/runner"
)

// Call records one command the fake was asked to run.
type Call struct {
	Argv        []string
	Dir         string
	Env         []string
	Interactive bool
}

// Key returns the argv joined with spaces, the form stubs are keyed by.
func (c Call) Key() string {
	return strings.Join(c.Argv, " ")
}

// Fake is a scripted Runner. Commands not explicitly stubbed succeed with
// exit code zero and empty output.
type Fake struct {
	mu      sync.Mutex
	calls   []Call
	results map[string]runner.Result
	errs    map[string]error
	paths   map[string]string
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{
		results: make(map[string]runner.Result),
		errs:    make(map[string]error),
		paths:   make(map[string]string),
	}
}

// Stub sets the result for an exact argv (joined with spaces).
func (f *Fake) Stub(argv string, res runner.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[argv] = res
}

// StubError makes an argv fail to start with the given error.
func (f *Fake) StubError(argv string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[argv] = err
}

// Install registers a binary as resolvable at the given path.
func (f *Fake) Install(name, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[name] = path
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines returns the joined argv of every call, in order.
func (f *Fake) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Key()
	}
	return lines
}

// Ran reports whether any recorded command starts with the given prefix.
func (f *Fake) Ran(prefix string) bool {
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Run implements runner.Runner.
func (f *Fake) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{
		Argv:        append([]string(nil), cmd.Argv...),
		Dir:         cmd.Dir,
		Env:         append([]string(nil), cmd.Env...),
		Interactive: cmd.Interactive,
	}
	f.calls = append(f.calls, call)

	key := call.Key()
	if err, ok := f.errs[key]; ok {
		return runner.Result{ExitCode: -1}, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return runner.Result{ExitCode: 0}, nil
}

// LookPath implements runner.Runner.
func (f *Fake) LookPath(name string, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path, ok := f.paths[name]; ok {
		return path, nil
	}
	return "", runner.ErrNotFound
}
