package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agripulse/internal/analysis"
	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/resilience"
	"agripulse/internal/transform"
	"agripulse/internal/validation"
)

// buildInput assembles a coherent workbook input by running the real
// analyzer over hand-built aggregates
func buildInput(t *testing.T) *Input {
	t.Helper()
	cfg := config.Default()

	tr := &transform.Result{
		Monthly:    make(transform.MonthlyAggregate),
		Seasonal:   make(transform.SeasonalAggregate),
		Indicators: make(transform.IndicatorSet),
		Crop:       make(transform.CropSeasonTable),
	}
	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			value := 50.0
			if measurement == dataset.MeasurementTemperature {
				value = 25.0
			}
			series := make(transform.MonthlySeries, 0, 12)
			for m := 1; m <= 12; m++ {
				series = append(series, transform.MonthlyPoint{
					Month: time.Date(2021, time.Month(m+1), 0, 0, 0, 0, 0, time.UTC),
					Value: value,
				})
			}
			tr.Monthly[dataset.SeriesKey{Region: region, Measurement: measurement}] = series
		}
		key := transform.SeasonalKey{Region: region, Season: dataset.SeasonKharif}
		tr.Seasonal[key] = transform.SeasonalSeries{
			{Year: 2021, Value: 400},
			{Year: 2022, Value: 410},
		}
		tr.Crop[key] = []transform.CropDay{
			{Date: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Rainfall: 10, Temperature: 25},
			{Date: time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC), Rainfall: 0, Temperature: 38},
		}
		tr.Indicators[region] = transform.Indicators{PrecipVariability: 0.4, DroughtFrequency: 0.1, TempAnomaly: 1.5}
	}

	scores := make(map[dataset.Region]resilience.Score)
	scorer := resilience.NewScorer(cfg.Seasons, cfg.Stress, cfg.Strategies, nil)
	for _, region := range dataset.Regions {
		score, err := scorer.Score(tr.Monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementPrecipitation}].Values(),
			tr.Monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementTemperature}].Values())
		require.NoError(t, err)
		scores[region] = score
	}

	res, err := analysis.NewAnalyzer(cfg, nil).Analyze(context.Background(), tr, scores)
	require.NoError(t, err)

	reports := make(map[dataset.SeriesKey]*validation.Report)
	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			key := dataset.SeriesKey{Region: region, Measurement: measurement}
			reports[key] = &validation.Report{
				Dataset:      key.String(),
				Key:          key,
				TotalRecords: 365,
				DateRange:    "2021-01-01 to 2021-12-31",
				Checks: validation.CheckSet{
					MissingValues:  validation.CheckResult{Passed: true},
					DateContinuity: validation.CheckResult{Passed: true},
					ValueRange:     validation.CheckResult{Passed: true},
					DataTypes:      validation.CheckResult{Passed: true},
				},
				Status: validation.StatusPassed,
			}
		}
	}

	return &Input{Reports: reports, Transformed: tr, Scores: scores, Analysis: res}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, buildInput(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	expected := []string{
		"Executive_Summary",
		"Validation_Summary",
		"Monthly_MH_precipitation",
		"Monthly_MH_temperature",
		"Monthly_MP_precipitation",
		"Monthly_MP_temperature",
		"Seasonal_MH_Kharif",
		"Seasonal_MH_Rabi",
		"Seasonal_MP_Kharif",
		"Seasonal_MP_Rabi",
		"Crop_MH_Kharif",
		"Crop_MH_Rabi",
		"Crop_MP_Kharif",
		"Crop_MP_Rabi",
		"Resilience_Scores",
		"Resilience_Indicators",
		"Economic_Impact",
		"Infrastructure_Risk",
		"Crop_Stress",
		"Recommendations",
	}
	for _, name := range expected {
		assert.Contains(t, sheets, name)
	}
	assert.NotContains(t, sheets, "Sheet1")

	t.Run("executive summary rows", func(t *testing.T) {
		region, err := f.GetCellValue("Executive_Summary", "A2")
		require.NoError(t, err)
		assert.Equal(t, "Maharashtra", region)

		level, err := f.GetCellValue("Executive_Summary", "C2")
		require.NoError(t, err)
		assert.Equal(t, "Low", level)
	})

	t.Run("validation summary rows", func(t *testing.T) {
		name, err := f.GetCellValue("Validation_Summary", "A2")
		require.NoError(t, err)
		assert.Equal(t, "MH_precipitation", name)

		status, err := f.GetCellValue("Validation_Summary", "I2")
		require.NoError(t, err)
		assert.Equal(t, "PASSED", status)

		missing, err := f.GetCellValue("Validation_Summary", "E2")
		require.NoError(t, err)
		assert.Equal(t, "PASS", missing)
	})

	t.Run("monthly sheet values", func(t *testing.T) {
		month, err := f.GetCellValue("Monthly_MH_precipitation", "A2")
		require.NoError(t, err)
		assert.Equal(t, "2021-01-31", month)

		value, err := f.GetCellValue("Monthly_MH_precipitation", "B2")
		require.NoError(t, err)
		assert.Equal(t, "50", value)
	})

	t.Run("seasonal sheet classification", func(t *testing.T) {
		year, err := f.GetCellValue("Seasonal_MH_Kharif", "A2")
		require.NoError(t, err)
		assert.Equal(t, "2021", year)

		class, err := f.GetCellValue("Seasonal_MH_Kharif", "C2")
		require.NoError(t, err)
		assert.Equal(t, "Normal", class)
	})

	t.Run("indicator values", func(t *testing.T) {
		variability, err := f.GetCellValue("Resilience_Indicators", "B2")
		require.NoError(t, err)
		assert.Equal(t, "0.4", variability)
	})

	t.Run("economic impact header", func(t *testing.T) {
		header, err := f.GetCellValue("Economic_Impact", "H1")
		require.NoError(t, err)
		assert.Equal(t, "Estimated_Loss(INR)", header)
	})

	t.Run("crop stress values", func(t *testing.T) {
		// One of the two crop days is stressed.
		stress, err := f.GetCellValue("Crop_Stress", "C2")
		require.NoError(t, err)
		assert.Equal(t, "50", stress)
	})

	t.Run("recommendations carry the strategy tier", func(t *testing.T) {
		category, err := f.GetCellValue("Recommendations", "B2")
		require.NoError(t, err)
		assert.Equal(t, "Climate Adaptation", category)
	})
}

func TestWriteWorkbookBadPath(t *testing.T) {
	err := NewWriter(nil).Write(filepath.Join(t.TempDir(), "missing", "results.xlsx"), buildInput(t))
	require.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Monthly_MH_precipitation", SheetName("Monthly_MH_precipitation"))

	long := strings.Repeat("x", 40)
	assert.Len(t, SheetName(long), 31)
}
