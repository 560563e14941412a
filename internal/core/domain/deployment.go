package domain

import (
	"errors"
	"regexp"
)

// =============================================================================
// Deployment Errors
// =============================================================================

var (
	// ErrCompatibilityDateEmpty is returned when a deploy is attempted
	// without a compatibility date.
	ErrCompatibilityDateEmpty = errors.New("compatibility date is empty")

	// ErrCompatibilityDateFormat is returned when the compatibility date is
	// not a calendar date in YYYY-MM-DD form.
	ErrCompatibilityDateFormat = errors.New("compatibility date must be YYYY-MM-DD")

	// ErrTargetEmpty is returned when the deployment manifest names no target.
	ErrTargetEmpty = errors.New("deployment target is empty")
)

var compatibilityDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// =============================================================================
// Deployment Manifest
// =============================================================================

// DeploymentManifest is the immutable per-invocation description of one
// deploy: the target worker, the pinned compatibility date that fixes the
// remote runtime's behavioral contract, and the path of the declarative
// platform config the remote tool reads. Each invocation with the same
// manifest still produces a new deployment generation on the platform.
type DeploymentManifest struct {
	// Target is the worker/service name on the remote platform.
	Target string

	// CompatibilityDate pins the remote runtime contract (YYYY-MM-DD). It is
	// always passed explicitly on the deploy command line and overrides any
	// value in the platform config file.
	CompatibilityDate string

	// ConfigPath is the declarative platform config (wrangler TOML) the
	// remote tool reads for routes, bindings and entry point.
	ConfigPath string
}

// Validate checks the manifest is deployable.
func (m DeploymentManifest) Validate() error {
	if m.Target == "" {
		return ErrTargetEmpty
	}
	if m.CompatibilityDate == "" {
		return ErrCompatibilityDateEmpty
	}
	if !compatibilityDateRe.MatchString(m.CompatibilityDate) {
		return ErrCompatibilityDateFormat
	}
	return nil
}

// =============================================================================
// Deploy Result
// =============================================================================

// DeployResult is the typed outcome of a successful deploy invocation.
type DeployResult struct {
	// Endpoint is the stable public URL serving the new generation.
	Endpoint string

	// GenerationID is the platform-assigned version/deployment id when the
	// tool reported one, otherwise empty.
	GenerationID string
}
