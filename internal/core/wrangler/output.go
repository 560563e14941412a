package wrangler

import (
	"regexp"
	"strings"
)

// =============================================================================
// Deploy Output Parsing
// =============================================================================

var (
	endpointRe   = regexp.MustCompile(`https://[A-Za-z0-9._-]+\.workers\.dev\b[^\s]*`)
	anyURLRe     = regexp.MustCompile(`https://[^\s]+`)
	generationRe = regexp.MustCompile(`Current (?:Version|Deployment) ID:\s*([0-9a-fA-F-]+)`)
)

// ParseDeployOutput extracts the published endpoint and the platform-assigned
// generation id from the deploy command's captured output. Either value may
// be empty; callers fall back to the config-derived endpoint.
func ParseDeployOutput(output string) (endpoint, generationID string) {
	// Prefer the workers.dev address the tool prints under the triggers
	// section; otherwise take the first URL in the output.
	if m := endpointRe.FindString(output); m != "" {
		endpoint = m
	} else if m := anyURLRe.FindString(output); m != "" {
		endpoint = m
	}
	endpoint = strings.TrimRight(endpoint, ".,)")

	if m := generationRe.FindStringSubmatch(output); m != nil {
		generationID = m[1]
	}
	return endpoint, generationID
}
