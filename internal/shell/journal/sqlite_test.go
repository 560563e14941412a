package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestJournal(t *testing.T) Journal {
	t.Helper()
	j, err := NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		j.Close()
	})
	return j
}

func createTestRun(t *testing.T, j Journal) *domain.RunRecord {
	t.Helper()
	run := domain.NewRunRecord(time.Now())
	require.NoError(t, j.CreateRun(context.Background(), run))
	return run
}

// =============================================================================
// Run Lifecycle Tests
// =============================================================================

func TestSQLiteJournal_CreateAndGetRun(t *testing.T) {
	j := setupTestJournal(t)
	run := createTestRun(t, j)

	loaded, err := j.GetRun(context.Background(), run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, domain.RunRunning, loaded.Status)
	assert.Empty(t, loaded.Steps)
}

func TestSQLiteJournal_CreateRun_DuplicateID(t *testing.T) {
	j := setupTestJournal(t)
	run := createTestRun(t, j)

	err := j.CreateRun(context.Background(), run)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSQLiteJournal_GetRun_NotFound(t *testing.T) {
	j := setupTestJournal(t)

	_, err := j.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteJournal_FullRunLifecycle(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	run := createTestRun(t, j)

	steps := []domain.StepResult{
		{Step: domain.StepTool, ExitCode: 0, Output: "updated wrangler", Elapsed: 2 * time.Second},
		{Step: domain.StepEnvironment, ExitCode: 0, Elapsed: time.Second},
		{Step: domain.StepDependencies, ExitCode: 0, Output: "Successfully installed requests-2.31.0", Elapsed: 9 * time.Second},
		{Step: domain.StepAuth, ExitCode: 0},
		{Step: domain.StepDeploy, ExitCode: 0, Output: "Deployed", Elapsed: 4 * time.Second},
	}
	for _, s := range steps {
		run.RecordStep(s)
		require.NoError(t, j.RecordStep(ctx, run.ID, s))
	}

	run.Endpoint = "https://api.bitebase.app"
	run.Finish(time.Now())
	require.NoError(t, j.FinishRun(ctx, run))

	loaded, err := j.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.RunSucceeded, loaded.Status)
	assert.Equal(t, "https://api.bitebase.app", loaded.Endpoint)
	require.Len(t, loaded.Steps, 5)
	assert.Equal(t, domain.StepDeploy, loaded.Steps[4].Step)
	assert.Equal(t, 9*time.Second, loaded.Steps[2].Elapsed)
	assert.False(t, loaded.FinishedAt.IsZero())
}

func TestSQLiteJournal_FailedRunKeepsPartialSteps(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	run := createTestRun(t, j)

	ok := domain.StepResult{Step: domain.StepTool, ExitCode: 0}
	failed := domain.StepResult{Step: domain.StepAuth, ExitCode: 130, Output: "login cancelled"}
	for _, s := range []domain.StepResult{ok, failed} {
		run.RecordStep(s)
		require.NoError(t, j.RecordStep(ctx, run.ID, s))
	}

	run.Finish(time.Now())
	require.NoError(t, j.FinishRun(ctx, run))

	loaded, err := j.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, loaded.Status)
	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, 130, loaded.Steps[1].ExitCode)

	// Deploy never ran, so no deploy row exists.
	for _, s := range loaded.Steps {
		assert.NotEqual(t, domain.StepDeploy, s.Step)
	}
}

func TestSQLiteJournal_FinishRun_NotFound(t *testing.T) {
	j := setupTestJournal(t)

	run := domain.NewRunRecord(time.Now())
	run.Finish(time.Now())
	err := j.FinishRun(context.Background(), run)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteJournal_RecordStep_TruncatesOutput(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	run := createTestRun(t, j)

	long := strings.Repeat("x", maxStoredOutput*2) + "TAIL"
	require.NoError(t, j.RecordStep(ctx, run.ID, domain.StepResult{
		Step:   domain.StepDependencies,
		Output: long,
	}))

	loaded, err := j.GetRun(ctx, run.ID)
	require.NoError(t, err)

	require.Len(t, loaded.Steps, 1)
	assert.Len(t, loaded.Steps[0].Output, maxStoredOutput)
	assert.True(t, strings.HasSuffix(loaded.Steps[0].Output, "TAIL"), "the tail of the output is kept")
}

func TestSQLiteJournal_ListRuns_NewestFirst(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	older := domain.NewRunRecord(time.Now().Add(-time.Hour))
	require.NoError(t, j.CreateRun(ctx, older))
	newer := domain.NewRunRecord(time.Now())
	require.NoError(t, j.CreateRun(ctx, newer))

	runs, err := j.ListRuns(ctx, 10)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
}

func TestSQLiteJournal_ListRuns_Limit(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, j.CreateRun(ctx, domain.NewRunRecord(time.Now().Add(time.Duration(i)*time.Minute))))
	}

	runs, err := j.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
