// Package resilience converts rainfall and temperature statistics into
// bounded 0-100 climate resilience scores and maps scores to adaptation
// strategy tiers.
package resilience

import (
	"fmt"
	"log/slog"
	"math"

	"agripulse/internal/config"
	"agripulse/internal/stats"
)

// Score penalty weights. Droughts hit hardest, excess rain and cold
// stress less so.
const (
	VariabilityPenalty = 50.0
	DroughtPenalty     = 100.0
	ExcessPenalty      = 75.0
	HeatStressPenalty  = 100.0
	ColdStressPenalty  = 75.0
)

// Score is the resilience result for one region
type Score struct {
	Overall     float64  `json:"score"`
	Rainfall    float64  `json:"rainfall_score"`
	Temperature float64  `json:"temperature_score"`
	Strategies  []string `json:"adaptation_strategies"`
}

// Scorer computes resilience scores from monthly rainfall and
// temperature series
type Scorer struct {
	seasons    config.SeasonConfig
	stress     config.StressConfig
	strategies config.StrategyConfig
	logger     *slog.Logger
}

// NewScorer creates a scorer with the given thresholds and strategy tiers
func NewScorer(seasons config.SeasonConfig, stress config.StressConfig, strategies config.StrategyConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{seasons: seasons, stress: stress, strategies: strategies, logger: logger}
}

// Score computes the overall resilience score for one region from its
// monthly rainfall and temperature means. Both sub-scores are clamped to
// [0,100]; the overall score is their arithmetic mean.
func (s *Scorer) Score(rainfall, temperature []float64) (Score, error) {
	if len(rainfall) == 0 || len(temperature) == 0 {
		return Score{}, fmt.Errorf("empty input series")
	}

	rainScore := s.rainfallScore(rainfall)
	tempScore := s.temperatureScore(temperature)
	overall := (rainScore + tempScore) / 2

	return Score{
		Overall:     overall,
		Rainfall:    rainScore,
		Temperature: tempScore,
		Strategies:  s.StrategiesFor(overall),
	}, nil
}

// rainfallScore starts at 100 and subtracts penalties for variability,
// drought frequency and excess frequency. With a zero mean the
// coefficient of variation is undefined; the penalty falls back to 0
// rather than propagating NaN.
func (s *Scorer) rainfallScore(rainfall []float64) float64 {
	mean := stats.Mean(rainfall)

	variability := 0.0
	droughtFreq := 0.0
	excessFreq := 0.0
	if !math.IsNaN(mean) && mean != 0 {
		if sd := stats.StdDev(rainfall); !math.IsNaN(sd) {
			variability = sd / mean
		}
		droughtFreq = stats.Fraction(rainfall, func(x float64) bool {
			return x < s.seasons.DroughtThreshold*mean
		})
		excessFreq = stats.Fraction(rainfall, func(x float64) bool {
			return x > s.seasons.ExcessThreshold*mean
		})
	}

	score := 100.0
	score -= variability * VariabilityPenalty
	score -= droughtFreq * DroughtPenalty
	score -= excessFreq * ExcessPenalty
	return clamp(score)
}

// temperatureScore starts at 100 and subtracts penalties for the share
// of readings outside the stress bounds
func (s *Scorer) temperatureScore(temperature []float64) float64 {
	highStress := stats.Fraction(temperature, func(x float64) bool { return x > s.stress.TempHigh })
	lowStress := stats.Fraction(temperature, func(x float64) bool { return x < s.stress.TempLow })
	if math.IsNaN(highStress) {
		highStress = 0
	}
	if math.IsNaN(lowStress) {
		lowStress = 0
	}

	score := 100.0
	score -= highStress * HeatStressPenalty
	score -= lowStress * ColdStressPenalty
	return clamp(score)
}

// StrategiesFor returns the adaptation strategy list for a score tier
func (s *Scorer) StrategiesFor(score float64) []string {
	var tier []string
	switch {
	case score < s.strategies.LowScoreBound:
		tier = s.strategies.Low
	case score < s.strategies.ModerateScoreBound:
		tier = s.strategies.Moderate
	default:
		tier = s.strategies.High
	}

	out := make([]string, len(tier))
	copy(out, tier)
	return out
}

// clamp bounds a score to [0,100]
func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
