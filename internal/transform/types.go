package transform

import (
	"time"

	"agripulse/internal/dataset"
)

// MonthlyPoint is one month's mean value, anchored to the month-end date
type MonthlyPoint struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// MonthlySeries is a chronologically ordered sequence of monthly means
type MonthlySeries []MonthlyPoint

// Values returns the monthly means as a slice
func (s MonthlySeries) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// MonthlyAggregate maps each series to its monthly means
type MonthlyAggregate map[dataset.SeriesKey]MonthlySeries

// SeasonalKey identifies a region+season grouping
type SeasonalKey struct {
	Region dataset.Region
	Season dataset.Season
}

// String returns a stable identifier for logs and report labels
func (k SeasonalKey) String() string {
	return k.Region.Code() + "_" + k.Season.String()
}

// SeasonalValue is one year bucket's seasonal mean. Buckets follow the
// observation's own calendar year, so a Rabi season spanning the new
// year is split across two buckets (see seasonYearAttribution).
type SeasonalValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// SeasonalSeries is an ordered sequence of seasonal means by year
type SeasonalSeries []SeasonalValue

// Values returns the seasonal means as a slice
func (s SeasonalSeries) Values() []float64 {
	vals := make([]float64, len(s))
	for i, v := range s {
		vals[i] = v.Value
	}
	return vals
}

// SeasonalAggregate maps each region+season to its yearly means.
// Only rainfall series contribute seasonal aggregates.
type SeasonalAggregate map[SeasonalKey]SeasonalSeries

// Indicators holds the per-region resilience indicators
type Indicators struct {
	PrecipVariability float64 `json:"precip_variability"`
	DroughtFrequency  float64 `json:"drought_frequency"`
	TempAnomaly       float64 `json:"temp_anomaly"`
}

// IndicatorSet maps each region to its indicators
type IndicatorSet map[dataset.Region]Indicators

// CropDay is one row of the joined rainfall+temperature crop table
type CropDay struct {
	Date        time.Time `json:"date"`
	Rainfall    float64   `json:"rainfall_mm"`
	Temperature float64   `json:"temperature"`
}

// CropSeasonTable maps each region+season to its joined daily rows
type CropSeasonTable map[SeasonalKey][]CropDay

// Result is the full output of the transform stage
type Result struct {
	Monthly    MonthlyAggregate
	Seasonal   SeasonalAggregate
	Indicators IndicatorSet
	Crop       CropSeasonTable
}
