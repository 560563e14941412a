package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ExecContext Tests
// =============================================================================

func TestNewExecContext_CopiesEnviron(t *testing.T) {
	src := []string{"PATH=/usr/bin", "HOME=/home/op"}
	ctx := NewExecContext("/work", src)

	src[0] = "PATH=/poisoned"

	assert.Equal(t, "/usr/bin", ctx.Getenv("PATH"))
	assert.Equal(t, "/work", ctx.WorkDir)
}

func TestExecContext_Getenv_LastAssignmentWins(t *testing.T) {
	ctx := ExecContext{Env: []string{"FOO=first", "FOO=second"}}
	assert.Equal(t, "second", ctx.Getenv("FOO"))
}

func TestExecContext_Getenv_Unset(t *testing.T) {
	ctx := NewExecContext("", nil)
	assert.Equal(t, "", ctx.Getenv("MISSING"))
}

func TestExecContext_WithEnv_DoesNotMutateReceiver(t *testing.T) {
	base := NewExecContext("/work", []string{"PATH=/usr/bin"})
	derived := base.WithEnv("VIRTUAL_ENV", "/work/venv")

	assert.Equal(t, "", base.Getenv("VIRTUAL_ENV"))
	assert.Equal(t, "/work/venv", derived.Getenv("VIRTUAL_ENV"))
}

func TestExecContext_WithEnv_ReplacesExisting(t *testing.T) {
	base := NewExecContext("", []string{"FOO=old"})
	derived := base.WithEnv("FOO", "new")

	assert.Equal(t, "new", derived.Getenv("FOO"))
	assert.Len(t, derived.Env, 1)
}

func TestExecContext_WithPathPrefix(t *testing.T) {
	base := NewExecContext("", []string{"PATH=/usr/bin"})
	derived := base.WithPathPrefix("/work/venv/bin")

	want := "/work/venv/bin" + string(filepath.ListSeparator) + "/usr/bin"
	assert.Equal(t, want, derived.Getenv("PATH"))
}

func TestExecContext_WithPathPrefix_EmptyPath(t *testing.T) {
	base := NewExecContext("", nil)
	derived := base.WithPathPrefix("/work/venv/bin")

	assert.Equal(t, "/work/venv/bin", derived.Getenv("PATH"))
}

// =============================================================================
// Environment Tests
// =============================================================================

func TestNewEnvironment_Defaults(t *testing.T) {
	env, err := NewEnvironment("venv", "")
	require.NoError(t, err)

	assert.Equal(t, "venv", env.Dir)
	assert.Equal(t, "python3", env.Interpreter)
}

func TestNewEnvironment_EmptyDir(t *testing.T) {
	_, err := NewEnvironment("", "python3")
	assert.ErrorIs(t, err, ErrEnvDirEmpty)
}

func TestEnvironment_Activate(t *testing.T) {
	env, err := NewEnvironment("/work/venv", "python3")
	require.NoError(t, err)

	base := NewExecContext("/work", []string{"PATH=/usr/bin"})
	active := env.Activate(base)

	assert.True(t, active.Activated())
	assert.False(t, base.Activated(), "base context must stay untouched")
	assert.Equal(t, "/work/venv", active.Getenv("VIRTUAL_ENV"))

	// The environment bin dir must lead PATH so interpreter lookups resolve
	// inside the environment.
	path := active.Getenv("PATH")
	assert.Equal(t, env.BinDir(), path[:len(env.BinDir())])
}

func TestEnvironment_InterpreterPath(t *testing.T) {
	env, err := NewEnvironment("/work/venv", "python3")
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(env.InterpreterPath()), env.BinDir())
}
