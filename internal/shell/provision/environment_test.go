package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/shell/runner"
	"github.com/bitebase/deployctl/internal/shell/runner/runnertest"
)

// writeFakeVenv lays down the interpreter marker that makes an environment
// directory count as valid.
func writeFakeVenv(t *testing.T, root, dir string) {
	t.Helper()
	env, err := domain.NewEnvironment(filepath.Join(root, dir), "python3")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(env.BinDir(), 0o755))
	require.NoError(t, os.WriteFile(env.InterpreterPath(), []byte("#!/bin/sh\n"), 0o755))
}

// =============================================================================
// EnvironmentBuilder Tests
// =============================================================================

func TestEnvironmentBuilder_CreatesFreshEnvironment(t *testing.T) {
	workDir := t.TempDir()
	fake := runnertest.New()
	b := NewEnvironmentBuilder(fake, testLogger())

	env, err := domain.NewEnvironment("venv", "python3")
	require.NoError(t, err)

	base := domain.NewExecContext(workDir, []string{"PATH=/usr/bin"})
	activated, result, err := b.CreateAndActivate(context.Background(), base, env)
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Equal(t, []string{"python3 -m venv venv"}, fake.CommandLines())

	assert.True(t, activated.Activated())
	assert.Equal(t, filepath.Join(workDir, "venv"), activated.Getenv("VIRTUAL_ENV"))
	assert.False(t, base.Activated(), "base context must not be mutated")
}

func TestEnvironmentBuilder_ReusesValidEnvironment(t *testing.T) {
	workDir := t.TempDir()
	writeFakeVenv(t, workDir, "venv")

	fake := runnertest.New()
	b := NewEnvironmentBuilder(fake, testLogger())

	env, err := domain.NewEnvironment("venv", "python3")
	require.NoError(t, err)

	base := domain.NewExecContext(workDir, []string{"PATH=/usr/bin"})
	activated, result, err := b.CreateAndActivate(context.Background(), base, env)
	require.NoError(t, err)

	// No destructive recreation: nothing ran at all.
	assert.Empty(t, fake.Calls())
	assert.True(t, result.OK())
	assert.True(t, activated.Activated())
}

func TestEnvironmentBuilder_CreationFailureIsFatal(t *testing.T) {
	fake := runnertest.New()
	fake.Stub("python3 -m venv venv", runner.Result{ExitCode: 1, Output: "python3: command not found"})
	b := NewEnvironmentBuilder(fake, testLogger())

	env, err := domain.NewEnvironment("venv", "python3")
	require.NoError(t, err)

	base := domain.NewExecContext(t.TempDir(), []string{"PATH=/usr/bin"})
	after, result, err := b.CreateAndActivate(context.Background(), base, env)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrEnvironmentCreation)
	assert.Equal(t, 1, result.ExitCode)
	assert.False(t, after.Activated())

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, domain.StepEnvironment, stepErr.Step)
}

func TestEnvironmentBuilder_AbsoluteDir(t *testing.T) {
	workDir := t.TempDir()
	absDir := filepath.Join(workDir, "elsewhere", "venv")
	writeFakeVenv(t, "", absDir)

	fake := runnertest.New()
	b := NewEnvironmentBuilder(fake, testLogger())

	env, err := domain.NewEnvironment(absDir, "python3")
	require.NoError(t, err)

	activated, _, err := b.CreateAndActivate(context.Background(), domain.NewExecContext(workDir, nil), env)
	require.NoError(t, err)

	assert.Empty(t, fake.Calls())
	assert.Equal(t, absDir, activated.Getenv("VIRTUAL_ENV"))
}
