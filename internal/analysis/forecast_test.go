package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForecastNextLinear(t *testing.T) {
	next, ok := ForecastNext([]float64{60, 65, 70})
	assert.True(t, ok)
	assert.InDelta(t, 75, next, 1e-9)
}

func TestForecastNextClamps(t *testing.T) {
	up, ok := ForecastNext([]float64{80, 90, 100})
	assert.True(t, ok)
	assert.Equal(t, 100.0, up)

	down, ok := ForecastNext([]float64{30, 15, 0})
	assert.True(t, ok)
	assert.Equal(t, 0.0, down)
}

func TestForecastNextRounds(t *testing.T) {
	// intercept 50.9, slope 5.4
	next, ok := ForecastNext([]float64{50, 61, 55, 70})
	assert.True(t, ok)
	assert.Equal(t, 72.5, next)
}

func TestForecastNextNeedsTwoPoints(t *testing.T) {
	_, ok := ForecastNext([]float64{70})
	assert.False(t, ok)
	_, ok = ForecastNext(nil)
	assert.False(t, ok)
}

func TestForecastNextNonFinite(t *testing.T) {
	_, ok := ForecastNext([]float64{60, math.NaN(), 70})
	assert.False(t, ok)
	_, ok = ForecastNext([]float64{60, math.Inf(1)})
	assert.False(t, ok)
}
