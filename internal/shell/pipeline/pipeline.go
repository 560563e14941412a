// Package pipeline wires the five provisioning steps into one strictly
// sequential, fail-fast run: tool, environment, dependencies, auth, deploy.
// Each step is a precondition for the next; the first failure halts the run
// and its exit status propagates to the operator unchanged.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/core/wrangler"
	"github.com/bitebase/deployctl/internal/shell/journal"
	"github.com/bitebase/deployctl/internal/shell/provision"
	"github.com/bitebase/deployctl/internal/shell/receipt"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// =============================================================================
// Settings
// =============================================================================

// Settings is the immutable configuration one run operates on. It is built
// once from config and threaded through the steps; nothing mutates it.
type Settings struct {
	// Tool describes the platform CLI to provision.
	Tool domain.ToolDescriptor

	// Environment is the isolated runtime environment spec.
	Environment domain.Environment

	// ManifestPath is the dependency manifest, relative to WorkDir.
	ManifestPath string

	// PlatformConfigPath is the declarative platform config (wrangler TOML).
	PlatformConfigPath string

	// CompatibilityDate overrides the config file's compatibility date when
	// set. It is passed explicitly on every deploy invocation.
	CompatibilityDate string

	// ReceiptPath is where the deploy receipt is written on success.
	ReceiptPath string

	// WorkDir is the pipeline working directory.
	WorkDir string

	// Environ is the base process environment for child commands.
	Environ []string
}

// =============================================================================
// Pipeline Error
// =============================================================================

// PipelineError is a failed run. ExitCode carries the underlying command's
// exit status so main can propagate it verbatim; Output carries the failing
// command's own diagnostics for the operator.
type PipelineError struct {
	RunID    string
	Step     domain.StepName
	ExitCode int
	Output   string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("pipeline halted at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("pipeline failed: %v", e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Report
// =============================================================================

// Report is the outcome of a successful run.
type Report struct {
	RunID        string
	Target       string
	Endpoint     string
	GenerationID string
	Elapsed      time.Duration
}

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline executes the deployment sequence.
type Pipeline struct {
	settings Settings
	tool     *provision.ToolProvisioner
	env      *provision.EnvironmentBuilder
	deps     *provision.DependencyInstaller
	auth     *provision.AuthenticationGate
	deploy   *provision.DeploymentInvoker
	journal  journal.Journal
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline over the given runner and journal.
func New(settings Settings, r runner.Runner, j journal.Journal, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		settings: settings,
		tool:     provision.NewToolProvisioner(r, logger),
		env:      provision.NewEnvironmentBuilder(r, logger),
		deps:     provision.NewDependencyInstaller(r, logger),
		auth:     provision.NewAuthenticationGate(r, logger),
		deploy:   provision.NewDeploymentInvoker(r, logger),
		journal:  j,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes the full sequence. Steps run one at a time in fixed order;
// there is no retry, no rollback and no internal cancellation beyond ctx.
// Idempotence of the individual steps is what makes re-running an
// interrupted pipeline safe.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	cfg, err := p.loadPlatformConfig()
	if err != nil {
		return Report{}, &PipelineError{ExitCode: 1, Err: err}
	}

	manifest := domain.DeploymentManifest{
		Target:            cfg.Name,
		CompatibilityDate: p.settings.CompatibilityDate,
		ConfigPath:        p.settings.PlatformConfigPath,
	}
	if manifest.CompatibilityDate == "" {
		manifest.CompatibilityDate = cfg.CompatibilityDate
	}

	run := domain.NewRunRecord(p.now())
	p.logger.Info("pipeline starting",
		"run_id", run.ID,
		"target", manifest.Target,
		"compatibility_date", manifest.CompatibilityDate,
	)
	if err := p.journal.CreateRun(ctx, run); err != nil {
		// The journal is an audit trail, not a precondition; a failed write
		// must not block a deploy.
		p.logger.Warn("journal write failed", "error", err)
	}

	base := domain.NewExecContext(p.settings.WorkDir, p.settings.Environ)

	result, err := p.tool.Ensure(ctx, base, p.settings.Tool)
	if halted := p.record(ctx, run, result, err); halted != nil {
		return Report{}, halted
	}

	activated, result, err := p.env.CreateAndActivate(ctx, base, p.settings.Environment)
	if halted := p.record(ctx, run, result, err); halted != nil {
		return Report{}, halted
	}

	_, result, err = p.deps.Install(ctx, activated, p.settings.ManifestPath)
	if halted := p.record(ctx, run, result, err); halted != nil {
		return Report{}, halted
	}

	result, err = p.auth.EnsureSession(ctx, base, p.settings.Tool.Name)
	if halted := p.record(ctx, run, result, err); halted != nil {
		return Report{}, halted
	}

	deployed, result, err := p.deploy.Deploy(ctx, activated, p.settings.Tool.Name, manifest, cfg.Endpoint())
	if halted := p.record(ctx, run, result, err); halted != nil {
		return Report{}, halted
	}

	run.Endpoint = deployed.Endpoint
	run.Finish(p.now())
	if err := p.journal.FinishRun(ctx, run); err != nil {
		p.logger.Warn("journal write failed", "error", err)
	}
	p.writeReceipt(run, manifest, deployed)

	// The activated context goes out of scope here; the pipeline's end is
	// the environment's release point.
	report := Report{
		RunID:        run.ID,
		Target:       manifest.Target,
		Endpoint:     deployed.Endpoint,
		GenerationID: deployed.GenerationID,
		Elapsed:      run.FinishedAt.Sub(run.StartedAt),
	}
	p.logger.Info("pipeline complete",
		"run_id", report.RunID,
		"endpoint", report.Endpoint,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// record journals one step outcome and converts a step failure into the
// halting pipeline error.
func (p *Pipeline) record(ctx context.Context, run *domain.RunRecord, result domain.StepResult, stepErr error) *PipelineError {
	run.RecordStep(result)
	if err := p.journal.RecordStep(ctx, run.ID, result); err != nil {
		p.logger.Warn("journal write failed", "error", err)
	}
	if stepErr == nil {
		return nil
	}

	run.Finish(p.now())
	if err := p.journal.FinishRun(ctx, run); err != nil {
		p.logger.Warn("journal write failed", "error", err)
	}

	exitCode := result.ExitCode
	var sErr *provision.StepError
	if errors.As(stepErr, &sErr) && sErr.ExitCode > 0 {
		exitCode = sErr.ExitCode
	}
	if exitCode <= 0 {
		exitCode = 1
	}

	p.logger.Error("pipeline halted",
		"run_id", run.ID,
		"step", result.Step,
		"exit_code", exitCode,
		"error", stepErr,
	)
	return &PipelineError{
		RunID:    run.ID,
		Step:     result.Step,
		ExitCode: exitCode,
		Output:   result.Output,
		Err:      stepErr,
	}
}

// loadPlatformConfig reads and parses the declarative platform config.
func (p *Pipeline) loadPlatformConfig() (wrangler.Config, error) {
	path := p.settings.PlatformConfigPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.settings.WorkDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return wrangler.Config{}, fmt.Errorf("failed to read platform config: %w", err)
	}
	return wrangler.ParseConfig(content)
}

// writeReceipt records the successful deploy; failure to write it is logged
// but never fails a run that already published.
func (p *Pipeline) writeReceipt(run *domain.RunRecord, m domain.DeploymentManifest, deployed domain.DeployResult) {
	if p.settings.ReceiptPath == "" {
		return
	}
	path := p.settings.ReceiptPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.settings.WorkDir, path)
	}
	err := receipt.Write(path, receipt.Receipt{
		RunID:             run.ID,
		Target:            m.Target,
		Endpoint:          deployed.Endpoint,
		GenerationID:      deployed.GenerationID,
		CompatibilityDate: m.CompatibilityDate,
		DeployedAt:        run.FinishedAt,
	})
	if err != nil {
		p.logger.Warn("receipt write failed", "error", err)
	}
}
