package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/bitebase/deployctl/internal/core/domain"
	"github.com/bitebase/deployctl/internal/shell/pipeline"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all pipeline configuration. Every value has a working default
// so the binary runs with no arguments at all.
type Config struct {
	Tool         ToolConfig    `mapstructure:"tool"`
	Environment  EnvConfig     `mapstructure:"environment"`
	Dependencies DepsConfig    `mapstructure:"dependencies"`
	Deploy       DeployConfig  `mapstructure:"deploy"`
	Journal      JournalConfig `mapstructure:"journal"`
	Log          LogConfig     `mapstructure:"log"`
}

// ToolConfig describes the platform CLI and how to provision it.
type ToolConfig struct {
	Name           string   `mapstructure:"name"`
	Version        string   `mapstructure:"version"`
	InstallCommand []string `mapstructure:"install_command"`
	UpdateCommand  []string `mapstructure:"update_command"`
}

// EnvConfig describes the isolated runtime environment.
type EnvConfig struct {
	Dir         string `mapstructure:"dir"`
	Interpreter string `mapstructure:"interpreter"`
}

// DepsConfig describes dependency installation.
type DepsConfig struct {
	Manifest string `mapstructure:"manifest"`
}

// DeployConfig describes the deploy invocation.
type DeployConfig struct {
	// Config is the declarative platform config file (wrangler TOML).
	Config string `mapstructure:"config"`

	// CompatibilityDate is the explicit runtime contract pin passed on the
	// deploy command line. It overrides the config file's own value.
	CompatibilityDate string `mapstructure:"compatibility_date"`

	// Receipt is where the deploy receipt is written on success.
	Receipt string `mapstructure:"receipt"`
}

// JournalConfig holds run journal configuration.
type JournalConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("tool.name", "wrangler")
	v.SetDefault("tool.version", domain.VersionLatest)
	v.SetDefault("tool.install_command", []string{"npm", "install", "-g", "wrangler"})
	v.SetDefault("tool.update_command", []string{"npm", "update", "-g", "wrangler"})
	v.SetDefault("environment.dir", "venv")
	v.SetDefault("environment.interpreter", "python3")
	v.SetDefault("dependencies.manifest", "requirements.txt")
	v.SetDefault("deploy.config", "wrangler.toml")
	v.SetDefault("deploy.compatibility_date", "2024-04-09")
	v.SetDefault("deploy.receipt", "deploy-receipt.yaml")
	v.SetDefault("journal.dsn", "./deployctl.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DEPLOYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Settings builds the immutable pipeline settings from the loaded config.
func (c *Config) Settings(workDir string, environ []string) (pipeline.Settings, error) {
	env, err := domain.NewEnvironment(c.Environment.Dir, c.Environment.Interpreter)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("invalid environment config: %w", err)
	}

	return pipeline.Settings{
		Tool: domain.ToolDescriptor{
			Name:        c.Tool.Name,
			Version:     c.Tool.Version,
			InstallArgv: c.Tool.InstallCommand,
			UpdateArgv:  c.Tool.UpdateCommand,
		},
		Environment:        env,
		ManifestPath:       c.Dependencies.Manifest,
		PlatformConfigPath: c.Deploy.Config,
		CompatibilityDate:  c.Deploy.CompatibilityDate,
		ReceiptPath:        c.Deploy.Receipt,
		WorkDir:            workDir,
		Environ:            environ,
	}, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
