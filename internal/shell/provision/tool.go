package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// =============================================================================
// Tool Provisioner
// =============================================================================

// ToolProvisioner ensures a required external CLI tool is installed and up to
// date. Policy: absent means install then update; present means update
// unconditionally, since staleness cannot be detected from a presence check.
// The install command is never run for a tool that already resolves.
type ToolProvisioner struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewToolProvisioner creates a provisioner.
func NewToolProvisioner(r runner.Runner, logger *slog.Logger) *ToolProvisioner {
	return &ToolProvisioner{runner: r, logger: logger}
}

// Ensure makes the described tool present at the latest resolvable version.
// Both the install and update commands mutate the executing user's global
// tool installation; concurrent pipeline runs on one machine are unsafe.
func (p *ToolProvisioner) Ensure(ctx context.Context, execCtx domain.ExecContext, tool domain.ToolDescriptor) (domain.StepResult, error) {
	result := domain.StepResult{Step: domain.StepTool}

	if err := tool.Validate(); err != nil {
		return result, newStepError(domain.StepTool, "Ensure", 0, err)
	}

	presence := p.check(tool, execCtx)
	if presence.Installed {
		p.logger.Info("tool present, updating",
			"tool", tool.Name,
			"path", presence.Path,
		)
	} else {
		p.logger.Info("tool absent, installing", "tool", tool.Name)
		if err := p.runCommand(ctx, execCtx, tool.InstallArgv, &result); err != nil {
			return result, newStepError(domain.StepTool, "install", result.ExitCode, err)
		}
	}

	// Update runs even right after an install so a freshly provisioned tool
	// still floats to the newest resolvable version.
	if err := p.runCommand(ctx, execCtx, tool.UpdateArgv, &result); err != nil {
		return result, newStepError(domain.StepTool, "update", result.ExitCode, err)
	}

	p.logger.Info("tool provisioned", "tool", tool.Name, "elapsed", result.Elapsed)
	return result, nil
}

// check resolves the tool on the execution context's PATH. Installed-but-stale
// is indistinguishable from installed-and-current here; the update policy
// covers both.
func (p *ToolProvisioner) check(tool domain.ToolDescriptor, execCtx domain.ExecContext) domain.ToolPresence {
	path, err := p.runner.LookPath(tool.Name, execCtx.Env)
	if err != nil {
		return domain.ToolPresence{}
	}
	return domain.ToolPresence{Installed: true, Path: path}
}

// runCommand executes one provisioning command, folding its outcome into the
// accumulated step result.
func (p *ToolProvisioner) runCommand(ctx context.Context, execCtx domain.ExecContext, argv []string, result *domain.StepResult) error {
	res, err := p.runner.Run(ctx, runner.Command{
		Argv: argv,
		Dir:  execCtx.WorkDir,
		Env:  execCtx.Env,
	})
	result.ExitCode = res.ExitCode
	result.Output += res.Output
	result.Elapsed += res.Elapsed

	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if !res.OK() {
		return ErrToolUnavailable
	}
	return nil
}
