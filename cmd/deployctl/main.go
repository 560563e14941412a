package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitebase/deployctl/internal/shell/journal"
	"github.com/bitebase/deployctl/internal/shell/pipeline"
	"github.com/bitebase/deployctl/internal/shell/runner"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitJournalError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("deployctl %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	// Setup logger
	logger := SetupLogger(cfg)
	logger.Info("starting deployctl",
		"version", Version,
		"config", *configPath,
	)

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	settings, err := cfg.Settings(workDir, os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	// Open the run journal
	if dir := filepath.Dir(cfg.Journal.DSN); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create journal directory", "error", err)
			return ExitJournalError
		}
	}
	j, err := journal.NewSQLiteJournal(cfg.Journal.DSN)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		return ExitJournalError
	}
	defer j.Close()

	// Run the pipeline
	ctx := context.Background()
	p := pipeline.New(settings, runner.NewExecRunner(), j, logger)
	report, err := p.Run(ctx)
	if err != nil {
		var pErr *pipeline.PipelineError
		if errors.As(err, &pErr) {
			// Surface the failing command's own diagnostics verbatim and
			// propagate its exit status.
			if pErr.Output != "" {
				fmt.Fprint(os.Stderr, pErr.Output)
			}
			fmt.Fprintf(os.Stderr, "%v\n", pErr)
			return pErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return ExitConfigError
	}

	fmt.Printf("deployed %s\n", report.Target)
	fmt.Printf("endpoint: %s\n", report.Endpoint)
	if report.GenerationID != "" {
		fmt.Printf("generation: %s\n", report.GenerationID)
	}
	return ExitSuccess
}
