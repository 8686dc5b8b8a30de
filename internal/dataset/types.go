package dataset

import (
	"math"
	"time"
)

// Region identifies one of the two regions covered by the pipeline
type Region int

const (
	RegionMaharashtra Region = iota
	RegionMadhyaPradesh
)

// Regions lists all regions in canonical order
var Regions = []Region{RegionMaharashtra, RegionMadhyaPradesh}

// String returns the display name of the region
func (r Region) String() string {
	switch r {
	case RegionMaharashtra:
		return "Maharashtra"
	case RegionMadhyaPradesh:
		return "Madhya Pradesh"
	default:
		return "unknown"
	}
}

// Code returns the short region code used in file names
func (r Region) Code() string {
	switch r {
	case RegionMaharashtra:
		return "MH"
	case RegionMadhyaPradesh:
		return "MP"
	default:
		return "??"
	}
}

// Measurement identifies the variable recorded in a time series
type Measurement int

const (
	MeasurementPrecipitation Measurement = iota
	MeasurementTemperature
)

// Measurements lists all measurements in canonical order
var Measurements = []Measurement{MeasurementPrecipitation, MeasurementTemperature}

// String returns the measurement name
func (m Measurement) String() string {
	switch m {
	case MeasurementPrecipitation:
		return "precipitation"
	case MeasurementTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// Column returns the CSV column name holding the measurement values
func (m Measurement) Column() string {
	switch m {
	case MeasurementPrecipitation:
		return "rainfall_mm"
	case MeasurementTemperature:
		return "mean"
	default:
		return "unknown"
	}
}

// SeriesKey identifies a single region+measurement time series.
// Every mapping between pipeline components is keyed by this type,
// never by ad-hoc strings.
type SeriesKey struct {
	Region      Region
	Measurement Measurement
}

// String returns a stable identifier for logs and report labels
func (k SeriesKey) String() string {
	return k.Region.Code() + "_" + k.Measurement.String()
}

// Season identifies a cropping season
type Season int

const (
	SeasonKharif Season = iota
	SeasonRabi
)

// Seasons lists both cropping seasons in canonical order
var Seasons = []Season{SeasonKharif, SeasonRabi}

// String returns the season name
func (s Season) String() string {
	switch s {
	case SeasonKharif:
		return "Kharif"
	case SeasonRabi:
		return "Rabi"
	default:
		return "unknown"
	}
}

// Contains reports whether the calendar month belongs to the season.
// Kharif spans June-October, Rabi November-March.
func (s Season) Contains(m time.Month) bool {
	switch s {
	case SeasonKharif:
		return m >= time.June && m <= time.October
	case SeasonRabi:
		return m >= time.November || m <= time.March
	default:
		return false
	}
}

// SeasonOf returns the season the month belongs to, or false if the
// month (April, May) falls outside both cropping seasons.
func SeasonOf(m time.Month) (Season, bool) {
	for _, s := range Seasons {
		if s.Contains(m) {
			return s, true
		}
	}
	return 0, false
}

// Point is a single dated observation. A NaN value marks a missing
// observation that the validator may interpolate.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IsMissing reports whether the observation is missing
func (p Point) IsMissing() bool {
	return math.IsNaN(p.Value)
}

// TimeSeries is the ordered daily series for one region+measurement.
// Dates are unique and monotonically non-decreasing after Load.
type TimeSeries struct {
	Key    SeriesKey
	Points []Point
}

// Len returns the number of observations
func (ts *TimeSeries) Len() int {
	return len(ts.Points)
}

// Values returns the value column as a slice, missing values included as NaN
func (ts *TimeSeries) Values() []float64 {
	vals := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		vals[i] = p.Value
	}
	return vals
}

// MissingCount returns the number of missing observations
func (ts *TimeSeries) MissingCount() int {
	n := 0
	for _, p := range ts.Points {
		if p.IsMissing() {
			n++
		}
	}
	return n
}

// DateRange returns the first and last observation dates.
// Both are zero when the series is empty.
func (ts *TimeSeries) DateRange() (time.Time, time.Time) {
	if len(ts.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return ts.Points[0].Date, ts.Points[len(ts.Points)-1].Date
}

// Clone returns a deep copy of the series. The validator interpolates
// on a clone so concurrent runs never share mutable state.
func (ts *TimeSeries) Clone() *TimeSeries {
	points := make([]Point, len(ts.Points))
	copy(points, ts.Points)
	return &TimeSeries{Key: ts.Key, Points: points}
}

// Collection holds the loaded series for every region+measurement
type Collection map[SeriesKey]*TimeSeries

// Precipitation returns the rainfall series for the region, or nil
func (c Collection) Precipitation(r Region) *TimeSeries {
	return c[SeriesKey{Region: r, Measurement: MeasurementPrecipitation}]
}

// Temperature returns the temperature series for the region, or nil
func (c Collection) Temperature(r Region) *TimeSeries {
	return c[SeriesKey{Region: r, Measurement: MeasurementTemperature}]
}
