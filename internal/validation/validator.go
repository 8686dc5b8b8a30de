package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/stats"
)

// Validator checks structural and value-range integrity of loaded series
// and repairs missing values before anything flows downstream.
type Validator struct {
	cfg    config.ValidationConfig
	logger *slog.Logger
}

// New creates a validator with the given thresholds
func New(cfg config.ValidationConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{cfg: cfg, logger: logger}
}

// ValidateAll validates every series in the collection. It returns the
// per-dataset reports and a new collection holding the cleaned series;
// the input collection is never modified.
func (v *Validator) ValidateAll(ctx context.Context, coll dataset.Collection) (map[dataset.SeriesKey]*Report, dataset.Collection, error) {
	reports := make(map[dataset.SeriesKey]*Report, len(coll))
	cleaned := make(dataset.Collection, len(coll))

	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			key := dataset.SeriesKey{Region: region, Measurement: measurement}
			series, ok := coll[key]
			if !ok {
				return nil, nil, fmt.Errorf("missing series %s", key)
			}

			report, clean := v.ValidateSeries(ctx, series)
			reports[key] = report
			cleaned[key] = clean

			v.logger.InfoContext(ctx, "validated dataset",
				"dataset", key.String(),
				"status", string(report.Status),
				"records", report.TotalRecords,
				"interpolated", report.Interpolated,
			)
		}
	}

	return reports, cleaned, nil
}

// ValidateSeries validates one series. It interpolates missing values on
// a copy, re-runs every check against the cleaned data, and returns both
// the report and the cleaned series. Rows are never dropped.
func (v *Validator) ValidateSeries(ctx context.Context, series *dataset.TimeSeries) (*Report, *dataset.TimeSeries) {
	report := &Report{
		Dataset: series.Key.String(),
		Key:     series.Key,
		Status:  StatusPassed,
	}

	if series.Len() == 0 {
		report.Status = StatusError
		report.Checks.MissingValues = CheckResult{
			Passed:  false,
			Details: map[string]interface{}{"error": "empty series"},
		}
		return report, series.Clone()
	}

	clean := series.Clone()
	missingBefore := clean.MissingCount()
	if missingBefore > 0 {
		Interpolate(clean)
		report.Interpolated = missingBefore - clean.MissingCount()
	}

	first, last := clean.DateRange()
	report.TotalRecords = clean.Len()
	report.DateRange = fmt.Sprintf("%s to %s", first.Format("2006-01-02"), last.Format("2006-01-02"))

	report.Checks.MissingValues = v.checkMissingValues(clean, missingBefore)
	report.Checks.DateContinuity = v.checkDateContinuity(clean)
	report.Checks.ValueRange = v.checkValueRange(clean)
	report.Checks.DataTypes = v.checkDataTypes(clean)

	report.Statistics = v.calculateStatistics(clean)
	report.Anomalies = v.detectAnomalies(clean)

	if !report.Checks.AllPassed() {
		report.Status = StatusFailed
	}

	return report, clean
}

// checkMissingValues passes when no nulls remain after interpolation and
// the original gap fraction stayed within the configured tolerance
func (v *Validator) checkMissingValues(ts *dataset.TimeSeries, missingBefore int) CheckResult {
	remaining := ts.MissingCount()
	missingFrac := float64(missingBefore) / float64(ts.Len())

	return CheckResult{
		Passed: remaining == 0 && missingFrac <= v.cfg.MissingThreshold,
		Details: map[string]interface{}{
			"missing_before":   missingBefore,
			"missing_after":    remaining,
			"missing_fraction": missingFrac,
		},
	}
}

// checkDateContinuity passes when the row count equals the number of
// calendar days spanned by the series
func (v *Validator) checkDateContinuity(ts *dataset.TimeSeries) CheckResult {
	first, last := ts.DateRange()
	expected := int(last.Sub(first).Hours()/24) + 1
	actual := ts.Len()

	return CheckResult{
		Passed: expected == actual,
		Details: map[string]interface{}{
			"expected_days": expected,
			"actual_days":   actual,
			"missing_days":  expected - actual,
		},
	}
}

// checkValueRange passes when every value lies inside the configured
// physical range for the measurement
func (v *Validator) checkValueRange(ts *dataset.TimeSeries) CheckResult {
	var lo, hi float64
	switch ts.Key.Measurement {
	case dataset.MeasurementPrecipitation:
		lo, hi = 0, v.cfg.RainfallMax
	case dataset.MeasurementTemperature:
		lo, hi = v.cfg.TempMin, v.cfg.TempMax
	}

	invalid := 0
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range ts.Points {
		if p.IsMissing() {
			invalid++
			continue
		}
		if p.Value < minVal {
			minVal = p.Value
		}
		if p.Value > maxVal {
			maxVal = p.Value
		}
		if p.Value < lo || p.Value > hi {
			invalid++
		}
	}

	// With no finite value the min/max sentinels never move; report null
	// instead of infinities so the details stay serializable.
	var minDetail, maxDetail interface{}
	if minVal <= maxVal {
		minDetail, maxDetail = minVal, maxVal
	}

	return CheckResult{
		Passed: invalid == 0,
		Details: map[string]interface{}{
			"min":           minDetail,
			"max":           maxDetail,
			"lower_bound":   lo,
			"upper_bound":   hi,
			"invalid_count": invalid,
		},
	}
}

// checkDataTypes passes when every date parsed to a real timestamp and
// every value is a finite number. Parsing happens at load, so a failure
// here points at a loader defect rather than bad input.
func (v *Validator) checkDataTypes(ts *dataset.TimeSeries) CheckResult {
	badDates, badValues := 0, 0
	for _, p := range ts.Points {
		if p.Date.IsZero() {
			badDates++
		}
		if math.IsInf(p.Value, 0) {
			badValues++
		}
	}

	return CheckResult{
		Passed: badDates == 0 && badValues == 0,
		Details: map[string]interface{}{
			"date_column":  "time.Time",
			"value_column": "float64",
			"zero_dates":   badDates,
			"non_finite":   badValues,
		},
	}
}

// calculateStatistics computes the descriptive statistics block
func (v *Validator) calculateStatistics(ts *dataset.TimeSeries) ValueStats {
	values := ts.Values()
	s := ValueStats{
		Mean:   stats.Mean(values),
		Std:    stats.StdDev(values),
		Median: stats.Median(values),
		Q95:    stats.Quantile(v.cfg.ExtremeQuantile, values),
	}

	if ts.Key.Measurement == dataset.MeasurementTemperature {
		for _, p := range ts.Points {
			if !p.IsMissing() && p.Value > heatStressTemp {
				s.ExtremeDays++
			}
		}
	}

	return s
}

// Informational stress bounds for anomaly detection. These mirror the
// crop stress temperatures but are fixed here: anomaly reporting stays
// stable even when the analysis thresholds are tuned.
const (
	heatStressTemp = 35.0
	coldStressTemp = 15.0
)

// detectAnomalies finds extreme events and stress runs. Results are
// informational and never change the validation status.
func (v *Validator) detectAnomalies(ts *dataset.TimeSeries) Anomalies {
	var anomalies Anomalies

	switch ts.Key.Measurement {
	case dataset.MeasurementPrecipitation:
		anomalies.ExtremeRainfall = v.findExtremeEvents(ts)
		anomalies.DrySpells = v.findDrySpells(ts)
	case dataset.MeasurementTemperature:
		anomalies.HeatStress = findStressDays(ts, func(x float64) bool { return x > heatStressTemp })
		anomalies.ColdStress = findStressDays(ts, func(x float64) bool { return x < coldStressTemp })
	}

	return anomalies
}

// findExtremeEvents reports observations above the sample's extreme
// quantile, with their dates and the threshold used
func (v *Validator) findExtremeEvents(ts *dataset.TimeSeries) *ExtremeEvents {
	threshold := stats.Quantile(v.cfg.ExtremeQuantile, ts.Values())
	if math.IsNaN(threshold) {
		// No finite observations to rank; leave the threshold at zero so
		// the report still marshals.
		return &ExtremeEvents{Dates: []time.Time{}}
	}
	events := &ExtremeEvents{Threshold: threshold, Dates: []time.Time{}}

	for _, p := range ts.Points {
		if !p.IsMissing() && p.Value > threshold {
			events.Count++
			events.Dates = append(events.Dates, p.Date)
		}
	}
	return events
}

// findDrySpells reports maximal runs of consecutive days with rainfall
// below the dry-day cutoff whose length reaches the configured minimum
func (v *Validator) findDrySpells(ts *dataset.TimeSeries) *DrySpells {
	spells := &DrySpells{Spells: []int{}}
	run := 0

	flush := func() {
		if run >= v.cfg.DrySpellDays {
			spells.Spells = append(spells.Spells, run)
			if run > spells.MaxDuration {
				spells.MaxDuration = run
			}
		}
		run = 0
	}

	for _, p := range ts.Points {
		if !p.IsMissing() && p.Value < v.cfg.DryDayRainfall {
			run++
		} else {
			flush()
		}
	}
	flush()

	spells.Count = len(spells.Spells)
	return spells
}

// findStressDays reports observations matching the stress predicate
func findStressDays(ts *dataset.TimeSeries, pred func(float64) bool) *StressDays {
	days := &StressDays{Dates: []time.Time{}}
	for _, p := range ts.Points {
		if !p.IsMissing() && pred(p.Value) {
			days.Count++
			days.Dates = append(days.Dates, p.Date)
		}
	}
	return days
}
