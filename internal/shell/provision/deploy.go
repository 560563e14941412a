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
// Deployment Invoker
// =============================================================================

// DeploymentInvoker issues the versioned deployment command against the
// active session and environment. The platform builds and publishes a new
// deployment generation, atomically replacing the previous one; no
// partial-state cleanup happens on this side.
type DeploymentInvoker struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewDeploymentInvoker creates an invoker.
func NewDeploymentInvoker(r runner.Runner, logger *slog.Logger) *DeploymentInvoker {
	return &DeploymentInvoker{runner: r, logger: logger}
}

// Deploy publishes one deployment generation. The manifest's compatibility
// date is passed explicitly on the command line on every invocation and
// overrides any value in the platform config file. The fallbackEndpoint is
// surfaced when the tool's output carries no URL.
func (d *DeploymentInvoker) Deploy(ctx context.Context, execCtx domain.ExecContext, binary string, m domain.DeploymentManifest, fallbackEndpoint string) (domain.DeployResult, domain.StepResult, error) {
	result := domain.StepResult{Step: domain.StepDeploy}

	if err := m.Validate(); err != nil {
		return domain.DeployResult{}, result, newStepError(domain.StepDeploy, "Deploy", 0, err)
	}

	d.logger.Info("deploying",
		"target", m.Target,
		"compatibility_date", m.CompatibilityDate,
		"config", m.ConfigPath,
	)

	res, err := d.runner.Run(ctx, runner.Command{
		Argv: wrangler.DeployArgv(binary, m),
		Dir:  execCtx.WorkDir,
		Env:  execCtx.Env,
	})
	result.ExitCode = res.ExitCode
	result.Output = res.Output
	result.Elapsed = res.Elapsed

	if err != nil {
		return domain.DeployResult{}, result, newStepError(domain.StepDeploy, "Deploy", result.ExitCode,
			fmt.Errorf("%w: %v", ErrDeploymentRejected, err))
	}
	if !res.OK() {
		return domain.DeployResult{}, result, newStepError(domain.StepDeploy, "Deploy", result.ExitCode, ErrDeploymentRejected)
	}

	endpoint, generation := wrangler.ParseDeployOutput(res.Output)
	if endpoint == "" {
		endpoint = fallbackEndpoint
	}

	deployed := domain.DeployResult{Endpoint: endpoint, GenerationID: generation}
	d.logger.Info("deployed",
		"target", m.Target,
		"endpoint", deployed.Endpoint,
		"generation", deployed.GenerationID,
		"elapsed", result.Elapsed,
	)
	return deployed, result, nil
}
