// Package wrangler contains the pure logic around the remote platform's CLI:
// command argv construction, declarative config parsing, and extraction of
// the published endpoint from deploy output. Nothing here executes commands.
package wrangler

import (
	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Command Builders
// =============================================================================

// WhoamiArgv is the session probe command. Exit status zero means a valid
// session already exists and the interactive login can be skipped.
func WhoamiArgv(binary string) []string {
	return []string{binary, "whoami"}
}

// LoginArgv is the interactive login flow. It must run with inherited stdio
// since it blocks on the operator (browser hand-off or credential entry).
func LoginArgv(binary string) []string {
	return []string{binary, "login"}
}

// DeployArgv builds the deploy command for one manifest. The compatibility
// date is always passed explicitly so it overrides whatever the config file
// declares; the remote runtime contract stays pinned even if the file drifts.
func DeployArgv(binary string, m domain.DeploymentManifest) []string {
	argv := []string{binary, "deploy"}
	if m.ConfigPath != "" {
		argv = append(argv, "--config", m.ConfigPath)
	}
	argv = append(argv, "--compatibility-date", m.CompatibilityDate)
	return argv
}
