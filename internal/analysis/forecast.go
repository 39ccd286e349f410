package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/travel-viability/internal/common"
)

// ForecastNext fits an ordinary least squares line to scores against their
// 0-based index and predicts the next value, clamped to [0,100] and rounded to
// two decimals. It reports false for fewer than two scores or when the fit
// is not finite.
func ForecastNext(scores []float64) (float64, bool) {
	n := len(scores)
	if n < 2 {
		return 0, false
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, scores, nil, false)

	next := alpha + beta*float64(n)
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, false
	}
	return common.Round(common.Clamp(next, 0, 100), 2), true
}
