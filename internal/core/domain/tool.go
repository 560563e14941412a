// Package domain contains the pure domain types for the deployment pipeline.
// Nothing in this package performs I/O; the shell packages operate on these
// values and return them enriched.
package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Tool Errors
// =============================================================================

var (
	// ErrToolNameEmpty is returned when a descriptor has no binary name.
	ErrToolNameEmpty = errors.New("tool name is empty")

	// ErrToolNoInstallCommand is returned when a descriptor has no install command.
	ErrToolNoInstallCommand = errors.New("tool has no install command")

	// ErrToolNoUpdateCommand is returned when a descriptor has no update command.
	ErrToolNoUpdateCommand = errors.New("tool has no update command")
)

// =============================================================================
// Tool Descriptor
// =============================================================================

// VersionLatest marks a tool that floats to the newest resolvable version on
// every provisioning run instead of being pinned. Floating is the current
// policy for the deploy CLI; it trades reproducibility for always matching
// the remote platform.
const VersionLatest = "latest"

// ToolDescriptor describes an external CLI tool the pipeline depends on and
// the commands used to install or update it. The descriptor is owned by
// configuration; the provisioner only reads it.
type ToolDescriptor struct {
	// Name is the binary name resolved on PATH (e.g., "wrangler").
	Name string

	// Version is the required minimum version, or VersionLatest.
	Version string

	// InstallArgv is the full argv used when the tool is absent.
	InstallArgv []string

	// UpdateArgv is the full argv run unconditionally when the tool is
	// already present. Staleness is not detectable from a presence check,
	// so present always means update.
	UpdateArgv []string
}

// Validate checks the descriptor is complete enough to provision with.
func (d ToolDescriptor) Validate() error {
	if d.Name == "" {
		return ErrToolNameEmpty
	}
	if len(d.InstallArgv) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrToolNoInstallCommand)
	}
	if len(d.UpdateArgv) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrToolNoUpdateCommand)
	}
	return nil
}

// Pinned reports whether the descriptor requires an exact version rather
// than floating to latest.
func (d ToolDescriptor) Pinned() bool {
	return d.Version != "" && d.Version != VersionLatest
}

// =============================================================================
// Tool Presence
// =============================================================================

// ToolPresence is the result of a presence check. A present tool may still be
// stale; the two cases are distinguished so callers can apply the
// install-vs-update policy instead of blindly reinstalling.
type ToolPresence struct {
	// Installed is true when the binary resolves on PATH.
	Installed bool

	// Path is the resolved binary path when installed.
	Path string
}
