package pipeline

import (
	"context"
	"fmt"

	"agripulse/internal/analysis"
	"agripulse/internal/dataset"
	"agripulse/internal/resilience"
	"agripulse/internal/transform"
	"agripulse/internal/validation"
)

// State carries the typed artifacts between stages. Each stage fully
// materializes its output before the next one starts.
type State struct {
	RunID string

	Raw              dataset.Collection
	Cleaned          dataset.Collection
	Reports          map[dataset.SeriesKey]*validation.Report
	ValidationFailed bool
	Transformed      *transform.Result
	Scores           map[dataset.Region]resilience.Score
	Analysis         *analysis.Result
	WorkbookPath     string
	ResultsPath      string
}

// Stage is a single pipeline stage
type Stage interface {
	// ID returns the stage identifier used in logs and errors
	ID() string

	// Name returns the human-readable stage name
	Name() string

	// Run executes the stage against the shared state
	Run(ctx context.Context, state *State) error
}

// loadStage reads the raw CSV files
type loadStage struct {
	loader *dataset.Loader
}

func (s *loadStage) ID() string   { return "load" }
func (s *loadStage) Name() string { return "Load raw data" }

func (s *loadStage) Run(ctx context.Context, state *State) error {
	collection, err := s.loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	state.Raw = collection
	return nil
}

// validateStage checks data quality and swaps in the cleaned series
type validateStage struct {
	validator *validation.Validator
}

func (s *validateStage) ID() string   { return "validate" }
func (s *validateStage) Name() string { return "Validate and clean" }

func (s *validateStage) Run(ctx context.Context, state *State) error {
	reports, cleaned, err := s.validator.ValidateAll(ctx, state.Raw)
	if err != nil {
		return err
	}
	state.Reports = reports
	state.Cleaned = cleaned
	for _, report := range reports {
		if report.Status != validation.StatusPassed {
			state.ValidationFailed = true
			break
		}
	}
	return nil
}

// transformStage derives the aggregate tables
type transformStage struct {
	transformer *transform.Transformer
}

func (s *transformStage) ID() string   { return "transform" }
func (s *transformStage) Name() string { return "Transform aggregates" }

func (s *transformStage) Run(ctx context.Context, state *State) error {
	result, err := s.transformer.Transform(ctx, state.Cleaned)
	if err != nil {
		return err
	}
	state.Transformed = result
	return nil
}

// scoreStage computes the per-region resilience scores from the monthly
// aggregates
type scoreStage struct {
	scorer *resilience.Scorer
}

func (s *scoreStage) ID() string   { return "score" }
func (s *scoreStage) Name() string { return "Score resilience" }

func (s *scoreStage) Run(ctx context.Context, state *State) error {
	scores := make(map[dataset.Region]resilience.Score, len(dataset.Regions))
	for _, region := range dataset.Regions {
		rain := state.Transformed.Monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementPrecipitation}]
		temp := state.Transformed.Monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementTemperature}]

		score, err := s.scorer.Score(rain.Values(), temp.Values())
		if err != nil {
			return fmt.Errorf("score %s: %w", region, err)
		}
		scores[region] = score
	}
	state.Scores = scores
	return nil
}

// analyzeStage runs the analyzer over the transformed aggregates
type analyzeStage struct {
	analyzer *analysis.Analyzer
}

func (s *analyzeStage) ID() string   { return "analyze" }
func (s *analyzeStage) Name() string { return "Analyze" }

func (s *analyzeStage) Run(ctx context.Context, state *State) error {
	result, err := s.analyzer.Analyze(ctx, state.Transformed, state.Scores)
	if err != nil {
		return err
	}
	state.Analysis = result
	return nil
}
