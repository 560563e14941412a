package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Step Names
// =============================================================================

// StepName identifies one stage of the pipeline. The declaration order below
// is the execution order; each step is a precondition for the next.
type StepName string

const (
	StepTool         StepName = "tool"
	StepEnvironment  StepName = "environment"
	StepDependencies StepName = "dependencies"
	StepAuth         StepName = "auth"
	StepDeploy       StepName = "deploy"
)

// StepOrder is the fixed sequence the pipeline executes.
var StepOrder = []StepName{
	StepTool,
	StepEnvironment,
	StepDependencies,
	StepAuth,
	StepDeploy,
}

// =============================================================================
// Step Result
// =============================================================================

// StepResult captures the typed outcome of one executed step: exit status of
// the underlying commands, captured output, and elapsed time. Results are
// recorded in the run journal for both successful and failed runs.
type StepResult struct {
	Step     StepName
	ExitCode int
	Output   string
	Elapsed  time.Duration
}

// OK reports whether the step completed successfully.
func (r StepResult) OK() bool {
	return r.ExitCode == 0
}

// =============================================================================
// Run Record
// =============================================================================

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one pipeline run as persisted in the journal.
type RunRecord struct {
	ID         string
	Status     RunStatus
	Endpoint   string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
}

// NewRunRecord starts a new run record in the running state.
func NewRunRecord(now time.Time) *RunRecord {
	return &RunRecord{
		ID:        uuid.New().String(),
		Status:    RunRunning,
		StartedAt: now.UTC(),
	}
}

// RecordStep appends a step outcome to the run.
func (r *RunRecord) RecordStep(res StepResult) {
	r.Steps = append(r.Steps, res)
}

// Finish marks the run complete. A run fails if any recorded step failed.
func (r *RunRecord) Finish(now time.Time) {
	r.FinishedAt = now.UTC()
	r.Status = RunSucceeded
	for _, s := range r.Steps {
		if !s.OK() {
			r.Status = RunFailed
			return
		}
	}
}
