package wrangler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Errors
// =============================================================================

var (
	// ErrConfigEmpty is returned for an empty config document.
	ErrConfigEmpty = errors.New("platform config is empty")

	// ErrConfigNoName is returned when the config declares no worker name.
	ErrConfigNoName = errors.New("platform config declares no name")
)

// =============================================================================
// Platform Config
// =============================================================================

// Config is the subset of the declarative platform config (wrangler TOML)
// the pipeline cares about: target identity, routing, and the on-file
// compatibility date that the explicit deploy-time override supersedes.
type Config struct {
	// Name is the worker/service name, the deployment target identifier.
	Name string

	// Main is the worker entry point (informational).
	Main string

	// CompatibilityDate is the date declared in the file. The pipeline never
	// deploys with this value directly; the manifest override wins.
	CompatibilityDate string

	// WorkersDev reports whether the workers.dev preview route is enabled.
	WorkersDev bool

	// Routes are the route patterns bound to the worker, in file order.
	Routes []string
}

// ParseConfig parses raw TOML content. Pure function: the file read is the
// caller's responsibility.
func ParseConfig(content []byte) (Config, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return Config{}, ErrConfigEmpty
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return Config{}, fmt.Errorf("failed to parse platform config: %w", err)
	}

	cfg := Config{
		Name:              v.GetString("name"),
		Main:              v.GetString("main"),
		CompatibilityDate: v.GetString("compatibility_date"),
		WorkersDev:        v.GetBool("workers_dev"),
	}
	if cfg.Name == "" {
		return Config{}, ErrConfigNoName
	}

	if route := v.GetString("route"); route != "" {
		cfg.Routes = append(cfg.Routes, route)
	}
	cfg.Routes = append(cfg.Routes, parseRoutes(v.Get("routes"))...)

	return cfg, nil
}

// parseRoutes accepts both route list shapes the platform allows: plain
// pattern strings and tables with a pattern key.
func parseRoutes(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var routes []string
	for _, entry := range list {
		switch r := entry.(type) {
		case string:
			routes = append(routes, r)
		case map[string]any:
			if pattern, ok := r["pattern"].(string); ok && pattern != "" {
				routes = append(routes, pattern)
			}
		}
	}
	return routes
}

// =============================================================================
// Endpoint Derivation
// =============================================================================

// Endpoint returns the public URL the deployed service is expected to serve
// on, derived from the config: the first bound route wins, otherwise the
// workers.dev address for the worker name. Used as the fallback when the
// deploy output itself does not carry a URL.
func (c Config) Endpoint() string {
	if len(c.Routes) > 0 {
		return routeURL(c.Routes[0])
	}
	if c.WorkersDev {
		return fmt.Sprintf("https://%s.workers.dev", c.Name)
	}
	return ""
}

// routeURL normalizes a route pattern like "api.example.com/*" to a URL.
func routeURL(pattern string) string {
	url := strings.TrimSuffix(pattern, "/*")
	url = strings.TrimSuffix(url, "*")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimSuffix(url, "/")
}
