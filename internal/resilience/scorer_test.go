package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agripulse/internal/config"
)

func newScorer() *Scorer {
	cfg := config.Default()
	return NewScorer(cfg.Seasons, cfg.Stress, cfg.Strategies, nil)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScorePerfectConditions(t *testing.T) {
	// Ten identical rainfall values: no variability, no droughts, no
	// excess. Temperatures all inside [15,35]: no stress days.
	rainfall := repeat(50, 10)
	temperature := repeat(25, 10)

	score, err := newScorer().Score(rainfall, temperature)
	require.NoError(t, err)

	assert.InDelta(t, 100, score.Rainfall, 1e-9)
	assert.InDelta(t, 100, score.Temperature, 1e-9)
	assert.InDelta(t, 100, score.Overall, 1e-9)
	assert.Equal(t, config.Default().Strategies.High, score.Strategies)
}

func TestScoreEmptyInput(t *testing.T) {
	_, err := newScorer().Score(nil, repeat(25, 5))
	require.Error(t, err)

	_, err = newScorer().Score(repeat(5, 5), nil)
	require.Error(t, err)
}

func TestRainfallScorePenalties(t *testing.T) {
	scorer := newScorer()

	t.Run("drought values reduce the score", func(t *testing.T) {
		// Mean 55: the 10s sit below 0.8x mean, the 100s above 1.2x.
		rainfall := []float64{10, 10, 100, 100}
		score, err := scorer.Score(rainfall, repeat(25, 4))
		require.NoError(t, err)
		assert.Less(t, score.Rainfall, 100.0)
		assert.GreaterOrEqual(t, score.Rainfall, 0.0)
	})

	t.Run("clamped at zero", func(t *testing.T) {
		// Heavy alternation drives every penalty at once.
		rainfall := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1000}
		score, err := scorer.Score(rainfall, repeat(25, 10))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Rainfall, 0.0)
		assert.LessOrEqual(t, score.Rainfall, 100.0)
	})

	t.Run("all-zero rainfall falls back to no penalty", func(t *testing.T) {
		score, err := scorer.Score(repeat(0, 10), repeat(25, 10))
		require.NoError(t, err)
		assert.InDelta(t, 100, score.Rainfall, 1e-9)
	})
}

func TestTemperatureScorePenalties(t *testing.T) {
	scorer := newScorer()

	t.Run("heat stress", func(t *testing.T) {
		// Half the readings above 35C: 100 - 0.5*100 = 50.
		temperature := []float64{40, 40, 25, 25}
		score, err := scorer.Score(repeat(50, 4), temperature)
		require.NoError(t, err)
		assert.InDelta(t, 50, score.Temperature, 1e-9)
	})

	t.Run("cold stress", func(t *testing.T) {
		// Half the readings below 15C: 100 - 0.5*75 = 62.5.
		temperature := []float64{10, 10, 25, 25}
		score, err := scorer.Score(repeat(50, 4), temperature)
		require.NoError(t, err)
		assert.InDelta(t, 62.5, score.Temperature, 1e-9)
	})

	t.Run("overall is the mean of sub-scores", func(t *testing.T) {
		temperature := []float64{40, 40, 25, 25}
		score, err := scorer.Score(repeat(50, 4), temperature)
		require.NoError(t, err)
		assert.InDelta(t, (score.Rainfall+score.Temperature)/2, score.Overall, 1e-9)
	})
}

func TestStrategiesFor(t *testing.T) {
	scorer := newScorer()
	cfg := config.Default().Strategies

	tests := []struct {
		name     string
		score    float64
		expected []string
	}{
		{"low tier", 10, cfg.Low},
		{"boundary below low bound", 29.99, cfg.Low},
		{"moderate tier", 30, cfg.Moderate},
		{"upper moderate", 59.99, cfg.Moderate},
		{"high tier", 60, cfg.High},
		{"perfect score", 100, cfg.High},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.StrategiesFor(tt.score))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := newScorer()

	// Any input must land inside [0,100] for both sub-scores.
	inputs := [][]float64{
		{0.001, 1000, 0.001, 1000},
		{1, 1, 1, 1000000},
		repeat(42, 3),
	}
	for _, rainfall := range inputs {
		score, err := scorer.Score(rainfall, []float64{-40, 60, 25})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Rainfall, 0.0)
		assert.LessOrEqual(t, score.Rainfall, 100.0)
		assert.GreaterOrEqual(t, score.Temperature, 0.0)
		assert.LessOrEqual(t, score.Temperature, 100.0)
		assert.GreaterOrEqual(t, score.Overall, 0.0)
		assert.LessOrEqual(t, score.Overall, 100.0)
	}
}
