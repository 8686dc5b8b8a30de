package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"agripulse/internal/analysis"
	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/errors"
	"agripulse/internal/infrastructure"
	"agripulse/internal/report"
	"agripulse/internal/resilience"
	"agripulse/internal/transform"
	"agripulse/internal/validation"
)

// Runner executes the pipeline stages in order. A process runs one
// pipeline at a time; each run operates on its own in-memory state.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	writer *report.Writer

	// ContinueOnValidationFailure keeps the run going after a FAILED
	// validation so the workbook documents the failure. When false the
	// run aborts with the reports attached to the returned state.
	ContinueOnValidationFailure bool
}

// NewRunner creates a runner for the given configuration
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		writer: report.NewWriter(logger),
	}
}

// Run executes load, validate, transform, score, analyze and report,
// returning the final state. The state holds whatever stages completed,
// so a validation abort still carries the reports.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state := &State{RunID: uuid.NewString()}
	ctx = infrastructure.WithRunID(ctx, state.RunID)

	start := time.Now()
	r.logger.InfoContext(ctx, "starting pipeline run",
		"data_dir", r.cfg.Paths.DataDir,
		"output_dir", r.cfg.Paths.OutputDir,
	)

	stages := []Stage{
		&loadStage{loader: dataset.NewLoader(r.cfg.Paths.DataDir, r.logger)},
		&validateStage{validator: validation.New(r.cfg.Validation, r.logger)},
		&transformStage{transformer: transform.NewTransformer(r.cfg.Seasons, r.logger)},
		&scoreStage{scorer: resilience.NewScorer(r.cfg.Seasons, r.cfg.Stress, r.cfg.Strategies, r.logger)},
		&analyzeStage{analyzer: analysis.NewAnalyzer(r.cfg, r.logger)},
	}

	for _, stage := range stages {
		if err := r.runStage(ctx, stage, state); err != nil {
			return state, err
		}

		if stage.ID() == "validate" && state.ValidationFailed {
			if !r.ContinueOnValidationFailure {
				r.logger.ErrorContext(ctx, "validation failed, aborting run")
				return state, errors.NewValidationError("collection", "one or more datasets failed validation")
			}
			r.logger.WarnContext(ctx, "validation failed, continuing; report will document the failure")
		}
	}

	if err := r.writeOutputs(ctx, state); err != nil {
		return state, err
	}

	r.logger.InfoContext(ctx, "pipeline run completed",
		"duration", time.Since(start),
		"workbook", state.WorkbookPath,
	)
	return state, nil
}

// runStage executes one stage with timing and error wrapping
func (r *Runner) runStage(ctx context.Context, stage Stage, state *State) error {
	select {
	case <-ctx.Done():
		return errors.NewStageError(stage.ID(), ctx.Err())
	default:
	}

	start := time.Now()
	r.logger.InfoContext(ctx, "stage started", "stage", stage.ID(), "name", stage.Name())

	if err := stage.Run(ctx, state); err != nil {
		r.logger.ErrorContext(ctx, "stage failed",
			"stage", stage.ID(),
			"duration", time.Since(start),
			"error", err,
		)
		return errors.NewStageError(stage.ID(), err)
	}

	r.logger.InfoContext(ctx, "stage completed",
		"stage", stage.ID(),
		"duration", time.Since(start),
	)
	return nil
}

// writeOutputs writes the workbook and the JSON results dump
func (r *Runner) writeOutputs(ctx context.Context, state *State) error {
	if err := os.MkdirAll(r.cfg.Paths.OutputDir, 0755); err != nil {
		return errors.NewReportError(r.cfg.Paths.OutputDir, err)
	}

	state.WorkbookPath = filepath.Join(r.cfg.Paths.OutputDir, r.cfg.Paths.WorkbookName)
	input := &report.Input{
		Reports:     state.Reports,
		Transformed: state.Transformed,
		Scores:      state.Scores,
		Analysis:    state.Analysis,
	}
	if err := r.writer.Write(state.WorkbookPath, input); err != nil {
		return err
	}

	state.ResultsPath = filepath.Join(r.cfg.Paths.OutputDir, r.cfg.Paths.ResultsName)
	if err := writeResultsJSON(state.ResultsPath, state); err != nil {
		return errors.NewReportError(state.ResultsPath, err)
	}

	return nil
}

// resultsDocument is the JSON shape of the results dump. String keys
// throughout so the document marshals cleanly.
type resultsDocument struct {
	RunID              string                                   `json:"run_id"`
	GeneratedAt        time.Time                                `json:"generated_at"`
	Validation         map[string]*validation.Report            `json:"validation"`
	Resilience         map[string]resilience.Score              `json:"resilience"`
	Indicators         map[string]transform.Indicators          `json:"indicators"`
	InfrastructureRisk map[string]float64                       `json:"infrastructure_risk"`
	CropStress         map[string]float64                       `json:"crop_stress"`
	Recommendations    map[string][]string                      `json:"recommendations"`
	Bundles            map[string]analysis.RecommendationBundle `json:"final_recommendations"`
}

// writeResultsJSON dumps the run summary alongside the workbook
func writeResultsJSON(path string, state *State) error {
	doc := resultsDocument{
		RunID:              state.RunID,
		GeneratedAt:        time.Now().UTC(),
		Validation:         make(map[string]*validation.Report),
		Resilience:         make(map[string]resilience.Score),
		Indicators:         make(map[string]transform.Indicators),
		InfrastructureRisk: make(map[string]float64),
		CropStress:         make(map[string]float64),
		Recommendations:    make(map[string][]string),
		Bundles:            make(map[string]analysis.RecommendationBundle),
	}

	for key, rep := range state.Reports {
		doc.Validation[key.String()] = rep
	}
	for region, score := range state.Scores {
		doc.Resilience[region.Code()] = score
	}
	if state.Transformed != nil {
		for region, ind := range state.Transformed.Indicators {
			doc.Indicators[region.Code()] = ind
		}
	}
	if state.Analysis != nil {
		for region, risk := range state.Analysis.InfrastructureRisk {
			doc.InfrastructureRisk[region.Code()] = risk
		}
		for key, stress := range state.Analysis.CropStress {
			doc.CropStress[key.String()] = stress
		}
		for region, recs := range state.Analysis.Recommendations {
			doc.Recommendations[region.Code()] = recs
		}
		for region, bundle := range state.Analysis.Bundles {
			doc.Bundles[region.Code()] = bundle
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
