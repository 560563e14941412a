package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// =============================================================================
// Environment Builder
// =============================================================================

// EnvironmentBuilder creates the isolated runtime environment and activates
// it by deriving a new execution context. Activation never mutates ambient
// process state; callers thread the returned context into later steps.
type EnvironmentBuilder struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewEnvironmentBuilder creates a builder.
func NewEnvironmentBuilder(r runner.Runner, logger *slog.Logger) *EnvironmentBuilder {
	return &EnvironmentBuilder{runner: r, logger: logger}
}

// CreateAndActivate ensures the environment exists and returns an execution
// context bound to it. An existing valid environment (its interpreter
// resolves) is reused, never recreated destructively.
func (b *EnvironmentBuilder) CreateAndActivate(ctx context.Context, execCtx domain.ExecContext, env domain.Environment) (domain.ExecContext, domain.StepResult, error) {
	result := domain.StepResult{Step: domain.StepEnvironment}

	resolved := env
	if !filepath.IsAbs(env.Dir) {
		resolved.Dir = filepath.Join(execCtx.WorkDir, env.Dir)
	}

	if b.valid(resolved) {
		b.logger.Info("environment exists, reusing", "dir", resolved.Dir)
		return resolved.Activate(execCtx), result, nil
	}

	b.logger.Info("creating environment",
		"dir", resolved.Dir,
		"interpreter", env.Interpreter,
	)

	res, err := b.runner.Run(ctx, runner.Command{
		Argv: []string{env.Interpreter, "-m", "venv", env.Dir},
		Dir:  execCtx.WorkDir,
		Env:  execCtx.Env,
	})
	result.ExitCode = res.ExitCode
	result.Output = res.Output
	result.Elapsed = res.Elapsed

	if err != nil {
		return execCtx, result, newStepError(domain.StepEnvironment, "CreateAndActivate", result.ExitCode,
			fmt.Errorf("%w: %v", ErrEnvironmentCreation, err))
	}
	if !res.OK() {
		return execCtx, result, newStepError(domain.StepEnvironment, "CreateAndActivate", result.ExitCode, ErrEnvironmentCreation)
	}

	b.logger.Info("environment activated", "dir", resolved.Dir, "elapsed", result.Elapsed)
	return resolved.Activate(execCtx), result, nil
}

// valid reports whether the environment already holds its own interpreter.
func (b *EnvironmentBuilder) valid(env domain.Environment) bool {
	info, err := os.Stat(env.InterpreterPath())
	return err == nil && !info.IsDir()
}
