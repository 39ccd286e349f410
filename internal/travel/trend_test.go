package travel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTrendLabels(t *testing.T) {
	cases := []struct {
		name  string
		rates []float64
		want  TrendLabel
	}{
		{"rising", []float64{1.00, 1.01, 1.02, 1.03, 1.04}, TrendRising},
		{"rising four points", []float64{1.00, 1.01, 1.02, 1.03}, TrendRising},
		{"falling", []float64{1.04, 1.03, 1.02, 1.01, 1.00}, TrendFalling},
		{"mixed", []float64{1.00, 1.02, 1.01, 1.03, 1.04}, TrendStable},
		{"flat delta", []float64{1.00, 1.01, 1.01, 1.02, 1.03}, TrendStable},
		{"too short", []float64{1.00, 1.01, 1.02}, TrendStable},
		{"single point", []float64{1.00}, TrendStable},
		{"rising tail only", []float64{1.05, 1.00, 1.01, 1.02, 1.03}, TrendRising},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnalyzeTrend(tc.rates).Label)
		})
	}
}

func TestAnalyzeTrendSinglePoint(t *testing.T) {
	tr := AnalyzeTrend([]float64{150})
	assert.Equal(t, 0.0, tr.LastChange)
	assert.False(t, tr.Volatile)
}

func TestAnalyzeTrendVolatility(t *testing.T) {
	// Last change +4%, trend label stable because earlier deltas disagree.
	tr := AnalyzeTrend([]float64{100, 99, 100, 100, 104})
	assert.True(t, tr.Volatile)
	assert.Equal(t, TrendStable, tr.Label)
	assert.Equal(t, 4.0, tr.LastChange)

	tr = AnalyzeTrend([]float64{100, 102.5})
	assert.False(t, tr.Volatile)

	tr = AnalyzeTrend([]float64{100, 96.5})
	assert.True(t, tr.Volatile)
	assert.Equal(t, -3.5, tr.LastChange)
}

func TestAnalyzeHistoryAndSnapshot(t *testing.T) {
	history := []RateTable{
		{Rates: map[string]float64{"JPY": 148, "GBP": 0.80}},
		{Rates: map[string]float64{"JPY": 149, "GBP": 0.79}},
		{Rates: map[string]float64{"JPY": 150, "GBP": 0.78}},
		{Rates: map[string]float64{"JPY": 151, "GBP": 0.77}},
	}
	trends := AnalyzeHistory(history)
	assert.Equal(t, TrendRising, trends["JPY"].Label)
	assert.Equal(t, TrendFalling, trends["GBP"].Label)

	current := RateTable{Rates: map[string]float64{"JPY": 151.2}, Source: SourceLive}
	snap := BuildExchangeSnapshot("JPY", current, trends)
	assert.Equal(t, 151.2, snap.Rate)
	assert.False(t, snap.Stable())

	missing := BuildExchangeSnapshot("XYZ", current, trends)
	assert.Equal(t, 1.0, missing.Rate)
	assert.True(t, missing.Stable())

	assert.Empty(t, AnalyzeHistory(nil))
}

func TestAnalyzeTrendZeroRates(t *testing.T) {
	assert.Equal(t, []float64{0, 2}, DailyChanges([]float64{0, 150, 153}))

	assert.NotPanics(t, func() {
		tr := AnalyzeTrend([]float64{0, 0, 0, 0, 0})
		assert.Equal(t, Trend{Label: TrendStable}, tr)
	})
}
