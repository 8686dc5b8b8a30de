package validation

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agripulse/internal/config"
	"agripulse/internal/dataset"
)

// dailySeries builds a contiguous daily series starting at start
func dailySeries(key dataset.SeriesKey, start time.Time, values []float64) *dataset.TimeSeries {
	points := make([]dataset.Point, len(values))
	for i, v := range values {
		points[i] = dataset.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	return &dataset.TimeSeries{Key: key, Points: points}
}

// repeat returns n copies of v
func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

var (
	precipKey = dataset.SeriesKey{Region: dataset.RegionMaharashtra, Measurement: dataset.MeasurementPrecipitation}
	tempKey   = dataset.SeriesKey{Region: dataset.RegionMaharashtra, Measurement: dataset.MeasurementTemperature}
	startDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func newValidator() *Validator {
	return New(config.Default().Validation, nil)
}

func TestValidateSeriesPassed(t *testing.T) {
	series := dailySeries(precipKey, startDate, repeat(5.0, 365))

	report, clean := newValidator().ValidateSeries(context.Background(), series)

	assert.Equal(t, StatusPassed, report.Status)
	assert.Equal(t, 365, report.TotalRecords)
	assert.Equal(t, "2023-01-01 to 2023-12-31", report.DateRange)
	assert.True(t, report.Checks.AllPassed())
	assert.Equal(t, 0, report.Interpolated)
	assert.InDelta(t, 5.0, report.Statistics.Mean, 1e-9)
	assert.Equal(t, 365, clean.Len())
}

func TestValidateSeriesEmpty(t *testing.T) {
	series := &dataset.TimeSeries{Key: precipKey}

	report, _ := newValidator().ValidateSeries(context.Background(), series)
	assert.Equal(t, StatusError, report.Status)
}

func TestValidateSeriesDateGap(t *testing.T) {
	series := dailySeries(precipKey, startDate, repeat(5.0, 10))
	// Remove an interior day so the span no longer matches the count.
	series.Points = append(series.Points[:5], series.Points[6:]...)

	report, _ := newValidator().ValidateSeries(context.Background(), series)

	assert.Equal(t, StatusFailed, report.Status)
	assert.False(t, report.Checks.DateContinuity.Passed)
	assert.Equal(t, 10, report.Checks.DateContinuity.Details["expected_days"])
	assert.Equal(t, 9, report.Checks.DateContinuity.Details["actual_days"])
}

func TestValidateSeriesValueRange(t *testing.T) {
	t.Run("rainfall above maximum", func(t *testing.T) {
		values := repeat(5.0, 30)
		values[10] = 200 // above the 150mm cap
		series := dailySeries(precipKey, startDate, values)

		report, _ := newValidator().ValidateSeries(context.Background(), series)
		assert.Equal(t, StatusFailed, report.Status)
		assert.False(t, report.Checks.ValueRange.Passed)
		assert.Equal(t, 1, report.Checks.ValueRange.Details["invalid_count"])
	})

	t.Run("temperature below minimum", func(t *testing.T) {
		values := repeat(25.0, 30)
		values[0] = -20
		series := dailySeries(tempKey, startDate, values)

		report, _ := newValidator().ValidateSeries(context.Background(), series)
		assert.Equal(t, StatusFailed, report.Status)
		assert.False(t, report.Checks.ValueRange.Passed)
	})
}

func TestValidateSeriesInterpolation(t *testing.T) {
	values := repeat(10.0, 30)
	values[5] = math.NaN()
	values[6] = math.NaN()
	series := dailySeries(precipKey, startDate, values)

	validator := newValidator()
	report, clean := validator.ValidateSeries(context.Background(), series)

	assert.Equal(t, StatusPassed, report.Status)
	assert.Equal(t, 2, report.Interpolated)
	assert.Equal(t, 0, clean.MissingCount())
	assert.InDelta(t, 10.0, clean.Points[5].Value, 1e-9)

	// The original series is untouched.
	assert.True(t, series.Points[5].IsMissing())

	t.Run("revalidation is stable", func(t *testing.T) {
		second, cleanAgain := validator.ValidateSeries(context.Background(), clean)
		assert.Equal(t, report.Status, second.Status)
		assert.Equal(t, 0, second.Interpolated)
		assert.Equal(t, clean.Values(), cleanAgain.Values())
	})
}

func TestValidateSeriesMissingThreshold(t *testing.T) {
	// 20 of 40 values missing is far beyond the 10% tolerance; the check
	// fails even though interpolation fills every gap.
	values := repeat(10.0, 40)
	for i := 10; i < 30; i++ {
		values[i] = math.NaN()
	}
	series := dailySeries(precipKey, startDate, values)

	report, clean := newValidator().ValidateSeries(context.Background(), series)

	assert.Equal(t, StatusFailed, report.Status)
	assert.False(t, report.Checks.MissingValues.Passed)
	assert.Equal(t, 0, clean.MissingCount())
}

func TestDrySpellDetection(t *testing.T) {
	// One year of wet days with a single 20-day dry span.
	values := repeat(5.0, 365)
	for i := 100; i < 120; i++ {
		values[i] = 0.5
	}
	series := dailySeries(precipKey, startDate, values)

	report, _ := newValidator().ValidateSeries(context.Background(), series)

	require.NotNil(t, report.Anomalies.DrySpells)
	assert.Equal(t, 1, report.Anomalies.DrySpells.Count)
	assert.Equal(t, 20, report.Anomalies.DrySpells.MaxDuration)
	assert.Equal(t, []int{20}, report.Anomalies.DrySpells.Spells)
}

func TestDrySpellBelowMinimumIgnored(t *testing.T) {
	values := repeat(5.0, 60)
	for i := 10; i < 20; i++ { // 10 dry days, under the 15-day minimum
		values[i] = 0
	}
	series := dailySeries(precipKey, startDate, values)

	report, _ := newValidator().ValidateSeries(context.Background(), series)
	assert.Equal(t, 0, report.Anomalies.DrySpells.Count)
}

func TestExtremeEventDetection(t *testing.T) {
	values := repeat(1.0, 100)
	values[50] = 100
	series := dailySeries(precipKey, startDate, values)

	report, _ := newValidator().ValidateSeries(context.Background(), series)

	require.NotNil(t, report.Anomalies.ExtremeRainfall)
	assert.Equal(t, 1, report.Anomalies.ExtremeRainfall.Count)
	assert.Equal(t, startDate.AddDate(0, 0, 50), report.Anomalies.ExtremeRainfall.Dates[0])
	assert.Less(t, report.Anomalies.ExtremeRainfall.Threshold, 100.0)
}

func TestTemperatureAnomalies(t *testing.T) {
	values := repeat(25.0, 60)
	values[3] = 38 // heat stress
	values[4] = 39
	values[10] = 10 // cold stress
	series := dailySeries(tempKey, startDate, values)

	report, _ := newValidator().ValidateSeries(context.Background(), series)

	require.NotNil(t, report.Anomalies.HeatStress)
	require.NotNil(t, report.Anomalies.ColdStress)
	assert.Equal(t, 2, report.Anomalies.HeatStress.Count)
	assert.Equal(t, 1, report.Anomalies.ColdStress.Count)
	assert.Equal(t, 2, report.Statistics.ExtremeDays)
	assert.Nil(t, report.Anomalies.DrySpells)
}

func TestReportMarshalsSparseSeries(t *testing.T) {
	t.Run("single row has undefined std", func(t *testing.T) {
		series := dailySeries(precipKey, startDate, []float64{5})

		report, _ := newValidator().ValidateSeries(context.Background(), series)
		assert.Equal(t, StatusPassed, report.Status)
		assert.True(t, math.IsNaN(report.Statistics.Std))

		data, err := json.Marshal(report)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"std":null`)
		assert.Contains(t, string(data), `"mean":5`)
	})

	t.Run("all missing series", func(t *testing.T) {
		nan := math.NaN()
		series := dailySeries(precipKey, startDate, []float64{nan, nan, nan})

		report, _ := newValidator().ValidateSeries(context.Background(), series)
		assert.Equal(t, StatusFailed, report.Status)
		assert.Nil(t, report.Checks.ValueRange.Details["min"])
		assert.Nil(t, report.Checks.ValueRange.Details["max"])
		assert.Zero(t, report.Anomalies.ExtremeRainfall.Threshold)

		data, err := json.Marshal(report)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"mean":null`)
	})
}

func TestValidateAll(t *testing.T) {
	coll := make(dataset.Collection)
	for _, region := range dataset.Regions {
		pk := dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementPrecipitation}
		tk := dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementTemperature}
		coll[pk] = dailySeries(pk, startDate, repeat(5.0, 30))
		coll[tk] = dailySeries(tk, startDate, repeat(25.0, 30))
	}

	reports, cleaned, err := newValidator().ValidateAll(context.Background(), coll)
	require.NoError(t, err)
	require.Len(t, reports, 4)
	require.Len(t, cleaned, 4)
	for _, report := range reports {
		assert.Equal(t, StatusPassed, report.Status)
	}
}

func TestValidateAllMissingSeries(t *testing.T) {
	coll := make(dataset.Collection)
	_, _, err := newValidator().ValidateAll(context.Background(), coll)
	require.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	build := func(values ...float64) *dataset.TimeSeries {
		points := make([]dataset.Point, len(values))
		for i, v := range values {
			points[i] = dataset.Point{Date: day(i + 1), Value: v}
		}
		return &dataset.TimeSeries{Key: precipKey, Points: points}
	}
	nan := math.NaN()

	t.Run("interior gap is linear", func(t *testing.T) {
		ts := build(1, nan, nan, 4)
		Interpolate(ts)
		assert.InDelta(t, 2, ts.Points[1].Value, 1e-9)
		assert.InDelta(t, 3, ts.Points[2].Value, 1e-9)
	})

	t.Run("leading gap backfills", func(t *testing.T) {
		ts := build(nan, nan, 3, 5)
		Interpolate(ts)
		assert.InDelta(t, 3, ts.Points[0].Value, 1e-9)
		assert.InDelta(t, 3, ts.Points[1].Value, 1e-9)
	})

	t.Run("trailing gap forward fills", func(t *testing.T) {
		ts := build(3, 5, nan)
		Interpolate(ts)
		assert.InDelta(t, 5, ts.Points[2].Value, 1e-9)
	})

	t.Run("all missing is untouched", func(t *testing.T) {
		ts := build(nan, nan)
		Interpolate(ts)
		assert.Equal(t, 2, ts.MissingCount())
	})

	t.Run("no-op on clean series", func(t *testing.T) {
		ts := build(1, 2, 3)
		Interpolate(ts)
		assert.Equal(t, []float64{1, 2, 3}, ts.Values())
	})
}
