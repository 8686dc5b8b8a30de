// Command validate loads the raw datasets and prints the validation
// reports as JSON, without running the rest of the pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/infrastructure"
	"agripulse/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	dataDir := flag.String("data", "", "input data directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := context.Background()

	loader := dataset.NewLoader(cfg.Paths.DataDir, logger)
	collection, err := loader.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load data", "error", err)
		os.Exit(1)
	}

	validator := validation.New(cfg.Validation, logger)
	reports, _, err := validator.ValidateAll(ctx, collection)
	if err != nil {
		logger.Error("Validation failed to run", "error", err)
		os.Exit(1)
	}

	out := make(map[string]*validation.Report, len(reports))
	failed := false
	for key, report := range reports {
		out[key.String()] = report
		if report.Status != validation.StatusPassed {
			failed = true
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		logger.Error("Failed to encode reports", "error", err)
		os.Exit(1)
	}

	if failed {
		os.Exit(1)
	}
}
