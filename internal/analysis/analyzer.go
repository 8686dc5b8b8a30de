package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"agripulse/internal/config"
	"agripulse/internal/dataset"
	"agripulse/internal/resilience"
	"agripulse/internal/stats"
	"agripulse/internal/transform"
)

// Infrastructure risk weights. The frequency terms are weighted 50/50
// and the sum is rescaled by riskScaleFactor before clamping to 100.
// The rescale reproduces the long-standing published score arithmetic;
// it is deliberately kept as a named constant rather than folded into
// the weights so a future revision can change it in one place.
const (
	rainRiskWeight  = 50.0
	tempRiskWeight  = 50.0
	riskScaleFactor = 100.0
)

// Fixed recommendation texts appended when a gate fires
var (
	lowResilienceActions = []string{
		"Implement drought-resistant crop varieties",
		"Develop water conservation infrastructure",
	}
	highRiskActions = []string{
		"Strengthen weather monitoring systems",
		"Improve drainage infrastructure",
	}
	kharifStressActions = []string{
		"Consider shifting kharif sowing dates",
		"Implement soil moisture conservation practices",
	}
	severeLossActions = []string{
		"Implement crop insurance schemes",
		"Develop alternative income sources",
		"Establish market linkages for crop diversification",
	}
	highRiskInfraActions = []string{
		"Upgrade irrigation infrastructure",
		"Improve water storage facilities",
		"Enhance weather monitoring systems",
	}
)

// Analyzer turns the transformed aggregates into classifications,
// economic impact, risk scores and recommendations. Pure aggregation,
// no I/O.
type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given configuration
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Analyze produces the complete analysis from the transform result and
// the per-region resilience scores
func (a *Analyzer) Analyze(ctx context.Context, tr *transform.Result, scores map[dataset.Region]resilience.Score) (*Result, error) {
	if tr == nil {
		return nil, fmt.Errorf("nil transform result")
	}

	result := &Result{
		Classification:     a.classifySeasons(tr.Seasonal),
		InfrastructureRisk: make(map[dataset.Region]float64, len(dataset.Regions)),
		CropStress:         make(map[transform.SeasonalKey]float64, len(tr.Crop)),
		Scores:             scores,
	}

	result.EconomicImpact = a.economicImpact(result.Classification)
	a.logger.InfoContext(ctx, "computed economic impact",
		"rows", len(result.EconomicImpact),
		"crops", len(a.cfg.Crops),
	)

	for _, region := range dataset.Regions {
		risk, err := a.infrastructureRisk(tr.Monthly, region)
		if err != nil {
			return nil, fmt.Errorf("infrastructure risk for %s: %w", region, err)
		}
		result.InfrastructureRisk[region] = risk
	}

	for key, days := range tr.Crop {
		result.CropStress[key] = a.stressPercentage(days)
	}

	result.Recommendations = a.recommendations(result)
	result.Bundles = a.bundles(result)

	return result, nil
}

// classifySeasons classifies each seasonal value against its own series
// mean: Drought below the drought share, Excess Rain above the excess
// share, Normal otherwise. The classes are exhaustive and mutually
// exclusive for any non-zero mean.
func (a *Analyzer) classifySeasons(seasonal transform.SeasonalAggregate) Classification {
	classification := make(Classification, len(seasonal))

	for key, series := range seasonal {
		mean := stats.Mean(series.Values())
		classified := make([]ClassifiedSeason, 0, len(series))
		for _, sv := range series {
			classified = append(classified, ClassifiedSeason{
				Year:  sv.Year,
				Value: sv.Value,
				Class: a.classify(sv.Value, mean),
			})
		}
		classification[key] = classified
	}

	return classification
}

// classify applies the drought/excess thresholds against the mean
func (a *Analyzer) classify(value, mean float64) SeasonClass {
	if math.IsNaN(mean) {
		return ClassNormal
	}
	switch {
	case value < a.cfg.Seasons.DroughtThreshold*mean:
		return ClassDrought
	case value > a.cfg.Seasons.ExcessThreshold*mean:
		return ClassExcessRain
	default:
		return ClassNormal
	}
}

// economicImpact produces one row per (region, year, season, crop) with
// the estimated revenue loss for the year's classification
func (a *Analyzer) economicImpact(classification Classification) []EconomicImpactRecord {
	var records []EconomicImpactRecord

	for _, region := range dataset.Regions {
		for _, season := range dataset.Seasons {
			key := transform.SeasonalKey{Region: region, Season: season}
			for _, cs := range classification[key] {
				lossPct := a.lossPercent(cs.Class)
				for _, crop := range a.cfg.Crops {
					baseYield := crop.AreaHectares * crop.YieldPerHectare
					baseRevenue := baseYield * crop.PricePerQuintal
					records = append(records, EconomicImpactRecord{
						Region:        region,
						RegionName:    region.String(),
						Year:          cs.Year,
						Season:        season,
						SeasonName:    season.String(),
						Crop:          crop.Name,
						Class:         cs.Class,
						BaseYield:     baseYield,
						BaseRevenue:   baseRevenue,
						EstimatedLoss: lossPct / 100 * baseRevenue,
					})
				}
			}
		}
	}

	return records
}

// lossPercent maps a classification to its yield loss percentage
func (a *Analyzer) lossPercent(class SeasonClass) float64 {
	switch class {
	case ClassDrought:
		return a.cfg.Impact.DroughtLossPct
	case ClassExcessRain:
		return a.cfg.Impact.ExcessLossPct
	default:
		return 0
	}
}

// infrastructureRisk scores a region from the frequency of monthly
// values above their own 95th percentile, for rainfall and temperature
func (a *Analyzer) infrastructureRisk(monthly transform.MonthlyAggregate, region dataset.Region) (float64, error) {
	rain := monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementPrecipitation}]
	temp := monthly[dataset.SeriesKey{Region: region, Measurement: dataset.MeasurementTemperature}]
	if len(rain) == 0 || len(temp) == 0 {
		return 0, fmt.Errorf("missing monthly aggregates")
	}

	rainFreq := extremeFrequency(rain.Values(), a.cfg.Validation.ExtremeQuantile)
	tempFreq := extremeFrequency(temp.Values(), a.cfg.Validation.ExtremeQuantile)

	risk := rainFreq*rainRiskWeight + tempFreq*tempRiskWeight
	return math.Min(100, risk*riskScaleFactor), nil
}

// extremeFrequency returns the fraction of values above the series' own
// extreme quantile
func extremeFrequency(values []float64, quantile float64) float64 {
	threshold := stats.Quantile(quantile, values)
	if math.IsNaN(threshold) {
		return 0
	}
	frac := stats.Fraction(values, func(x float64) bool { return x > threshold })
	if math.IsNaN(frac) {
		return 0
	}
	return frac
}

// stressPercentage returns the share of days, as a percentage, on which
// the crop was stressed: temperature outside the optimal band or
// rainfall below the daily minimum
func (a *Analyzer) stressPercentage(days []transform.CropDay) float64 {
	if len(days) == 0 {
		return 0
	}

	stressed := 0
	for _, day := range days {
		optimalTemp := day.Temperature >= a.cfg.Stress.OptimalTempLow && day.Temperature <= a.cfg.Stress.OptimalTempHigh
		adequateRain := day.Rainfall >= a.cfg.Stress.MinDailyRainfall
		if !optimalTemp || !adequateRain {
			stressed++
		}
	}
	return float64(stressed) / float64(len(days)) * 100
}

// recommendations appends the fixed action texts whose gate fires for
// each region
func (a *Analyzer) recommendations(result *Result) map[dataset.Region][]string {
	recommendations := make(map[dataset.Region][]string, len(dataset.Regions))

	for _, region := range dataset.Regions {
		recs := []string{}

		if score, ok := result.Scores[region]; ok && score.Overall < a.cfg.Recommendations.LowResilienceScore {
			recs = append(recs, lowResilienceActions...)
		}
		if result.InfrastructureRisk[region] > a.cfg.Recommendations.HighInfrastructureRisk {
			recs = append(recs, highRiskActions...)
		}
		kharifKey := transform.SeasonalKey{Region: region, Season: dataset.SeasonKharif}
		if result.CropStress[kharifKey] > a.cfg.Recommendations.KharifStressPct {
			recs = append(recs, kharifStressActions...)
		}

		recommendations[region] = recs
	}

	return recommendations
}

// bundles groups the final per-region recommendations by concern,
// combining the scorer's adaptation strategies with the gated actions
func (a *Analyzer) bundles(result *Result) map[dataset.Region]RecommendationBundle {
	bundles := make(map[dataset.Region]RecommendationBundle, len(dataset.Regions))

	for _, region := range dataset.Regions {
		bundle := RecommendationBundle{
			ClimateAdaptation: result.Scores[region].Strategies,
			EconomicMeasures:  []string{},
			Infrastructure:    []string{},
			CropManagement:    []string{},
		}

		for _, record := range result.EconomicImpact {
			if record.Region == region && record.EstimatedLoss < a.cfg.Recommendations.SevereLoss {
				bundle.EconomicMeasures = append(bundle.EconomicMeasures, severeLossActions...)
				break
			}
		}

		if result.InfrastructureRisk[region] > a.cfg.Recommendations.HighInfrastructureRisk {
			bundle.Infrastructure = append(bundle.Infrastructure, highRiskInfraActions...)
		}

		kharifKey := transform.SeasonalKey{Region: region, Season: dataset.SeasonKharif}
		if result.CropStress[kharifKey] > a.cfg.Recommendations.KharifStressPct {
			bundle.CropManagement = append(bundle.CropManagement, kharifStressActions...)
		}

		bundles[region] = bundle
	}

	return bundles
}
