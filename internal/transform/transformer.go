package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/stats"
)

// seasonYearAttribution: seasonal means are grouped by the observation's
// own calendar year. Rabi (Nov-Mar) therefore splits across two year
// buckets at the year boundary. Downstream consumers rely on the split,
// so changing the attribution rule is a breaking change.
const seasonYearAttribution = "calendar-year-of-row"

// Transformer derives the monthly, seasonal, indicator and crop tables
// from the validated series. It is a pure function of its input.
type Transformer struct {
	seasons config.SeasonConfig
	logger  *slog.Logger
}

// NewTransformer creates a transformer with the given season thresholds
func NewTransformer(seasons config.SeasonConfig, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{seasons: seasons, logger: logger}
}

// Transform produces every derived table from the cleaned collection
func (t *Transformer) Transform(ctx context.Context, coll dataset.Collection) (*Result, error) {
	if len(coll) == 0 {
		return nil, fmt.Errorf("empty collection")
	}
	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			key := dataset.SeriesKey{Region: region, Measurement: measurement}
			series, ok := coll[key]
			if !ok {
				return nil, fmt.Errorf("missing series %s", key)
			}
			if series.Len() == 0 {
				return nil, fmt.Errorf("empty series %s", key)
			}
		}
	}

	result := &Result{
		Monthly:    make(MonthlyAggregate, len(coll)),
		Seasonal:   make(SeasonalAggregate),
		Indicators: make(IndicatorSet, len(dataset.Regions)),
		Crop:       make(CropSeasonTable),
	}

	for key, series := range coll {
		result.Monthly[key] = monthlyMeans(series)
	}
	t.logger.DebugContext(ctx, "computed monthly aggregates", "series", len(result.Monthly))

	for _, region := range dataset.Regions {
		precip := coll.Precipitation(region)
		for _, season := range dataset.Seasons {
			skey := SeasonalKey{Region: region, Season: season}
			result.Seasonal[skey] = seasonalMeans(precip, season)
		}
	}
	t.logger.DebugContext(ctx, "computed seasonal aggregates",
		"groups", len(result.Seasonal),
		"year_attribution", seasonYearAttribution,
	)

	for _, region := range dataset.Regions {
		indicators, err := t.regionIndicators(coll, result.Seasonal, region)
		if err != nil {
			return nil, fmt.Errorf("indicators for %s: %w", region, err)
		}
		result.Indicators[region] = indicators
	}

	for _, region := range dataset.Regions {
		joined := joinOnDate(coll.Precipitation(region), coll.Temperature(region))
		t.logger.DebugContext(ctx, "joined crop table",
			"region", region.String(),
			"rows", len(joined),
		)
		for _, day := range joined {
			season, ok := dataset.SeasonOf(day.Date.Month())
			if !ok {
				continue
			}
			skey := SeasonalKey{Region: region, Season: season}
			result.Crop[skey] = append(result.Crop[skey], day)
		}
	}

	return result, nil
}

// monthlyMeans groups a daily series by calendar month and returns the
// per-month mean, anchored on the month-end date, in chronological order
func monthlyMeans(series *dataset.TimeSeries) MonthlySeries {
	groups := make(map[time.Time][]float64)
	for _, p := range series.Points {
		anchor := monthEnd(p.Date)
		groups[anchor] = append(groups[anchor], p.Value)
	}

	months := make([]time.Time, 0, len(groups))
	for month := range groups {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	monthly := make(MonthlySeries, 0, len(months))
	for _, month := range months {
		monthly = append(monthly, MonthlyPoint{Month: month, Value: stats.Mean(groups[month])})
	}
	return monthly
}

// monthEnd returns the last day of the date's calendar month
func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, d.Location())
}

// seasonalMeans groups a daily rainfall series by (season, row year) and
// returns the per-year means in year order
func seasonalMeans(series *dataset.TimeSeries, season dataset.Season) SeasonalSeries {
	groups := make(map[int][]float64)
	for _, p := range series.Points {
		if !season.Contains(p.Date.Month()) {
			continue
		}
		groups[p.Date.Year()] = append(groups[p.Date.Year()], p.Value)
	}

	years := make([]int, 0, len(groups))
	for year := range groups {
		years = append(years, year)
	}
	sort.Ints(years)

	seasonal := make(SeasonalSeries, 0, len(years))
	for _, year := range years {
		seasonal = append(seasonal, SeasonalValue{Year: year, Value: stats.Mean(groups[year])})
	}
	return seasonal
}

// regionIndicators computes the three resilience indicators for a region
func (t *Transformer) regionIndicators(coll dataset.Collection, seasonal SeasonalAggregate, region dataset.Region) (Indicators, error) {
	precip := coll.Precipitation(region)
	temp := coll.Temperature(region)
	if precip == nil || temp == nil {
		return Indicators{}, fmt.Errorf("missing series for region")
	}

	return Indicators{
		PrecipVariability: monthlyVariability(precip),
		DroughtFrequency:  t.droughtFrequency(seasonal[SeasonalKey{Region: region, Season: dataset.SeasonKharif}]),
		TempAnomaly:       temperatureAnomaly(temp),
	}, nil
}

// monthlyVariability returns the mean per-month coefficient of variation
// of daily rainfall. Months with a zero mean or fewer than two days are
// skipped; with nothing left the indicator falls back to 0.
func monthlyVariability(series *dataset.TimeSeries) float64 {
	groups := make(map[time.Time][]float64)
	for _, p := range series.Points {
		anchor := monthEnd(p.Date)
		groups[anchor] = append(groups[anchor], p.Value)
	}

	var ratios []float64
	for _, values := range groups {
		mean := stats.Mean(values)
		sd := stats.StdDev(values)
		if mean == 0 || math.IsNaN(mean) || math.IsNaN(sd) {
			continue
		}
		ratios = append(ratios, sd/mean)
	}

	if len(ratios) == 0 {
		return 0
	}
	return stats.Mean(ratios)
}

// droughtFrequency returns the fraction of Kharif seasonal means below
// the drought threshold share of the overall Kharif mean
func (t *Transformer) droughtFrequency(kharif SeasonalSeries) float64 {
	values := kharif.Values()
	mean := stats.Mean(values)
	if math.IsNaN(mean) {
		return 0
	}
	frac := stats.Fraction(values, func(x float64) bool {
		return x < t.seasons.DroughtThreshold*mean
	})
	if math.IsNaN(frac) {
		return 0
	}
	return frac
}

// temperatureAnomaly returns the mean absolute deviation of monthly mean
// temperature from the all-months baseline
func temperatureAnomaly(series *dataset.TimeSeries) float64 {
	monthly := monthlyMeans(series).Values()
	baseline := stats.Mean(monthly)
	if math.IsNaN(baseline) {
		return 0
	}

	deviations := make([]float64, len(monthly))
	for i, v := range monthly {
		deviations[i] = math.Abs(v - baseline)
	}
	return stats.Mean(deviations)
}

// joinOnDate inner-joins the rainfall and temperature series on date.
// Rows without a matching date on the other side are dropped.
func joinOnDate(precip, temp *dataset.TimeSeries) []CropDay {
	if precip == nil || temp == nil {
		return nil
	}

	joined := make([]CropDay, 0, min(precip.Len(), temp.Len()))
	i, j := 0, 0
	for i < precip.Len() && j < temp.Len() {
		pd, td := precip.Points[i].Date, temp.Points[j].Date
		switch {
		case pd.Before(td):
			i++
		case td.Before(pd):
			j++
		default:
			joined = append(joined, CropDay{
				Date:        pd,
				Rainfall:    precip.Points[i].Value,
				Temperature: temp.Points[j].Value,
			})
			i++
			j++
		}
	}
	return joined
}
