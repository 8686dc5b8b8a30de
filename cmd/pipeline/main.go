package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"agripulse/internal/config"
	"agripulse/internal/infrastructure"
	"agripulse/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	dataDir := flag.String("data", "", "input data directory (overrides config)")
	outputDir := flag.String("out", "", "output directory for the workbook (overrides config)")
	continueOnFailure := flag.Bool("continue-on-failure", false, "produce the workbook even when validation fails")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	runner := pipeline.NewRunner(cfg, logger)
	runner.ContinueOnValidationFailure = *continueOnFailure

	state, err := runner.Run(context.Background())
	if err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Pipeline run succeeded",
		"run_id", state.RunID,
		"workbook", state.WorkbookPath,
		"results", state.ResultsPath,
	)
	if state.ValidationFailed {
		logger.Warn("One or more datasets failed validation; see the Validation_Summary sheet")
	}
}
