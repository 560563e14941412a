// Package receipt writes the deploy receipt: a small YAML document recording
// what the last successful run published and where. Operators and follow-up
// tooling read it instead of scraping logs.
package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Receipt
// =============================================================================

// Receipt describes one successful deployment generation.
type Receipt struct {
	RunID             string    `yaml:"run_id"`
	Target            string    `yaml:"target"`
	Endpoint          string    `yaml:"endpoint"`
	GenerationID      string    `yaml:"generation_id,omitempty"`
	CompatibilityDate string    `yaml:"compatibility_date"`
	DeployedAt        time.Time `yaml:"deployed_at"`
}

// Write marshals the receipt to path, creating parent directories as needed.
// The previous receipt, if any, is replaced.
func Write(path string, r Receipt) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create receipt directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// Read loads a previously written receipt.
func Read(path string) (Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to read receipt: %w", err)
	}

	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Receipt{}, fmt.Errorf("failed to parse receipt: %w", err)
	}
	return r, nil
}
