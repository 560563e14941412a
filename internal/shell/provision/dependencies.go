package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/core/manifest"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// =============================================================================
// Dependency Installer
// =============================================================================

// DependencyInstaller installs the pinned dependency set into the activated
// environment. The package manager itself is upgraded first; an outdated
// installer can reject valid manifests. Installation is idempotent: an
// already-satisfied environment re-resolves to the same versions.
type DependencyInstaller struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewDependencyInstaller creates an installer.
func NewDependencyInstaller(r runner.Runner, logger *slog.Logger) *DependencyInstaller {
	return &DependencyInstaller{runner: r, logger: logger}
}

// Install parses the manifest and installs every entry inside the activated
// execution context.
func (i *DependencyInstaller) Install(ctx context.Context, execCtx domain.ExecContext, manifestPath string) (domain.DependencySet, domain.StepResult, error) {
	result := domain.StepResult{Step: domain.StepDependencies}

	if !execCtx.Activated() {
		return domain.DependencySet{}, result, newStepError(domain.StepDependencies, "Install", 0, domain.ErrEnvNotActivated)
	}

	set, err := i.load(execCtx, manifestPath)
	if err != nil {
		return domain.DependencySet{}, result, newStepError(domain.StepDependencies, "Install", 0,
			fmt.Errorf("%w: %v", ErrDependencyResolution, err))
	}

	i.logger.Info("installing dependencies",
		"manifest", manifestPath,
		"count", len(set.Dependencies),
		"pinned", set.Pinned(),
	)

	commands := [][]string{
		{"python", "-m", "pip", "install", "--upgrade", "pip"},
		{"python", "-m", "pip", "install", "-r", manifestPath},
	}
	for _, argv := range commands {
		res, err := i.runner.Run(ctx, runner.Command{
			Argv: argv,
			Dir:  execCtx.WorkDir,
			Env:  execCtx.Env,
		})
		result.ExitCode = res.ExitCode
		result.Output += res.Output
		result.Elapsed += res.Elapsed

		if err != nil {
			return set, result, newStepError(domain.StepDependencies, "Install", result.ExitCode,
				fmt.Errorf("%w: %v", ErrDependencyResolution, err))
		}
		if !res.OK() {
			return set, result, newStepError(domain.StepDependencies, "Install", result.ExitCode, ErrDependencyResolution)
		}
	}

	i.logger.Info("dependencies installed", "count", len(set.Dependencies), "elapsed", result.Elapsed)
	return set, result, nil
}

// load reads and parses the manifest, resolving a relative path against the
// execution context's working directory.
func (i *DependencyInstaller) load(execCtx domain.ExecContext, manifestPath string) (domain.DependencySet, error) {
	path := manifestPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(execCtx.WorkDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.DependencySet{}, err
	}
	return manifest.Parse(manifestPath, string(content))
}
