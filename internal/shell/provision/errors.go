// Package provision implements the five pipeline steps: tool provisioning,
// environment building, dependency installation, the authentication gate and
// the deployment invoker. Every step runs external commands through a
// runner.Runner and returns a typed step result alongside its error.
package provision

import (
	"errors"
	"fmt"

	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Step Errors
// =============================================================================

var (
	// ErrToolUnavailable is returned when the tool install or update
	// command fails.
	ErrToolUnavailable = errors.New("tool install/update failed")

	// ErrEnvironmentCreation is returned when the isolated environment
	// cannot be created.
	ErrEnvironmentCreation = errors.New("environment creation failed")

	// ErrDependencyResolution is returned when dependency installation fails.
	ErrDependencyResolution = errors.New("dependency installation failed")

	// ErrAuthentication is returned when the login flow fails or the
	// operator cancels it.
	ErrAuthentication = errors.New("authentication failed or cancelled")

	// ErrDeploymentRejected is returned when the remote platform refuses or
	// fails the publish.
	ErrDeploymentRejected = errors.New("deployment rejected by platform")
)

// StepError wraps a step failure with the underlying command's exit status
// so the pipeline can propagate it verbatim as the process exit code.
type StepError struct {
	Step     domain.StepName
	Op       string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s: %s: exit status %d: %v", e.Step, e.Op, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// newStepError builds a StepError; a zero exit code means the command never
// ran or could not be started.
func newStepError(step domain.StepName, op string, exitCode int, err error) *StepError {
	return &StepError{Step: step, Op: op, ExitCode: exitCode, Err: err}
}
