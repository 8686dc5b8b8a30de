package validation

import (
	"encoding/json"
	"math"
	"time"

	"agripulse/internal/dataset"
)

// Status is the overall outcome of validating one dataset
type Status string

const (
	StatusPassed Status = "PASSED"
	StatusFailed Status = "FAILED"
	StatusError  Status = "ERROR"
)

// CheckResult is the outcome of a single named check
type CheckResult struct {
	Passed  bool                   `json:"passed"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CheckSet groups the four data quality checks run on every dataset
type CheckSet struct {
	MissingValues  CheckResult `json:"missing_values"`
	DateContinuity CheckResult `json:"date_continuity"`
	ValueRange     CheckResult `json:"value_range"`
	DataTypes      CheckResult `json:"data_types"`
}

// AllPassed reports whether every check passed
func (cs CheckSet) AllPassed() bool {
	return cs.MissingValues.Passed && cs.DateContinuity.Passed &&
		cs.ValueRange.Passed && cs.DataTypes.Passed
}

// ValueStats holds the descriptive statistics for the value column.
// ExtremeDays counts temperature readings above the heat stress bound
// and is zero for rainfall series.
type ValueStats struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Median      float64 `json:"median"`
	Q95         float64 `json:"q95"`
	ExtremeDays int     `json:"extreme_days,omitempty"`
}

// MarshalJSON emits null for statistics that are undefined, such as the
// standard deviation of a one-row series. encoding/json rejects NaN and
// infinities, and a sparse series must not make the report unserializable.
func (s ValueStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean        *float64 `json:"mean"`
		Std         *float64 `json:"std"`
		Median      *float64 `json:"median"`
		Q95         *float64 `json:"q95"`
		ExtremeDays int      `json:"extreme_days,omitempty"`
	}{
		Mean:        finiteOrNil(s.Mean),
		Std:         finiteOrNil(s.Std),
		Median:      finiteOrNil(s.Median),
		Q95:         finiteOrNil(s.Q95),
		ExtremeDays: s.ExtremeDays,
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ExtremeEvents lists the observations above the extreme-event threshold
type ExtremeEvents struct {
	Count     int         `json:"count"`
	Threshold float64     `json:"threshold"`
	Dates     []time.Time `json:"dates"`
}

// DrySpells lists the maximal dry runs at or above the configured minimum
type DrySpells struct {
	Count       int   `json:"count"`
	MaxDuration int   `json:"max_duration"`
	Spells      []int `json:"spells"`
}

// StressDays lists temperature observations outside a stress bound
type StressDays struct {
	Count int         `json:"count"`
	Dates []time.Time `json:"dates"`
}

// Anomalies holds the informational anomaly detection results. They do
// not affect the validation status.
type Anomalies struct {
	ExtremeRainfall *ExtremeEvents `json:"extreme_rainfall,omitempty"`
	DrySpells       *DrySpells     `json:"dry_spells,omitempty"`
	HeatStress      *StressDays    `json:"heat_stress,omitempty"`
	ColdStress      *StressDays    `json:"cold_stress,omitempty"`
}

// Report is the full validation record for one dataset
type Report struct {
	Dataset      string            `json:"dataset"`
	Key          dataset.SeriesKey `json:"-"`
	TotalRecords int               `json:"total_records"`
	DateRange    string            `json:"date_range"`
	Checks       CheckSet          `json:"checks"`
	Statistics   ValueStats        `json:"statistics"`
	Anomalies    Anomalies         `json:"anomalies"`
	Interpolated int               `json:"interpolated"`
	Status       Status            `json:"validation_status"`
}
