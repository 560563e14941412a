package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/core/wrangler"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// =============================================================================
// Authentication Gate
// =============================================================================

// AuthenticationGate ensures the operator holds a valid session against the
// remote platform before deployment. The session itself is owned by the
// platform tool's own credential store; the gate only probes and triggers it.
type AuthenticationGate struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewAuthenticationGate creates a gate.
func NewAuthenticationGate(r runner.Runner, logger *slog.Logger) *AuthenticationGate {
	return &AuthenticationGate{runner: r, logger: logger}
}

// EnsureSession probes for an existing session and, when none is found, runs
// the interactive login flow. The login inherits the operator's stdio and may
// block indefinitely on human input; cancellation or rejected credentials is
// fatal with no automatic retry.
func (g *AuthenticationGate) EnsureSession(ctx context.Context, execCtx domain.ExecContext, binary string) (domain.StepResult, error) {
	result := domain.StepResult{Step: domain.StepAuth}

	probe, err := g.runner.Run(ctx, runner.Command{
		Argv: wrangler.WhoamiArgv(binary),
		Dir:  execCtx.WorkDir,
		Env:  execCtx.Env,
	})
	result.Elapsed += probe.Elapsed
	if err == nil && probe.OK() {
		g.logger.Info("session valid, login skipped")
		result.Output = probe.Output
		return result, nil
	}

	g.logger.Info("no valid session, starting interactive login")
	login, err := g.runner.Run(ctx, runner.Command{
		Argv:        wrangler.LoginArgv(binary),
		Dir:         execCtx.WorkDir,
		Env:         execCtx.Env,
		Interactive: true,
	})
	result.ExitCode = login.ExitCode
	result.Output += login.Output
	result.Elapsed += login.Elapsed

	if err != nil {
		return result, newStepError(domain.StepAuth, "EnsureSession", result.ExitCode,
			fmt.Errorf("%w: %v", ErrAuthentication, err))
	}
	if !login.OK() {
		return result, newStepError(domain.StepAuth, "EnsureSession", result.ExitCode, ErrAuthentication)
	}

	g.logger.Info("login complete", "elapsed", result.Elapsed)
	return result, nil
}
