package travel

import (
	"math"

	"github.com/i474232898/travel-viability/internal/common"
)

// TrendWindow is how many trailing daily changes must agree in sign for a
// directional label. Volatility only looks at the last change.
const TrendWindow = 3

// VolatilityThresholdPct is the absolute daily change above which a currency
// is flagged volatile.
const VolatilityThresholdPct = 3.0

// Trend is the classification of one currency's rate series.
type Trend struct {
	Label      TrendLabel `json:"tendencia"`
	LastChange float64    `json:"variacion_diaria"`
	Volatile   bool       `json:"volatil"`
}

// DailyChanges returns the percent change between consecutive rates. A change
// from a non-positive rate has no meaningful percentage and counts as 0.
func DailyChanges(rates []float64) []float64 {
	if len(rates) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(rates)-1)
	for i := 1; i < len(rates); i++ {
		if rates[i-1] <= 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (rates[i]-rates[i-1])/rates[i-1]*100)
	}
	return changes
}

// AnalyzeTrend classifies a series of daily rates ordered oldest to newest.
func AnalyzeTrend(rates []float64) Trend {
	changes := DailyChanges(rates)

	label := TrendStable
	if len(changes) >= TrendWindow {
		tail := changes[len(changes)-TrendWindow:]
		switch {
		case allOf(tail, func(c float64) bool { return c > 0 }):
			label = TrendRising
		case allOf(tail, func(c float64) bool { return c < 0 }):
			label = TrendFalling
		}
	}

	var last float64
	if len(changes) > 0 {
		last = changes[len(changes)-1]
	}

	return Trend{
		Label:      label,
		LastChange: common.Round(last, 2),
		Volatile:   math.Abs(last) > VolatilityThresholdPct,
	}
}

// AnalyzeHistory runs AnalyzeTrend for every currency in the oldest table.
// Days missing a currency are left out of that currency's series.
func AnalyzeHistory(history []RateTable) map[string]Trend {
	trends := make(map[string]Trend)
	if len(history) == 0 {
		return trends
	}

	for currency := range history[0].Rates {
		series := make([]float64, 0, len(history))
		for _, day := range history {
			if r, ok := day.Rates[currency]; ok {
				series = append(series, r)
			}
		}
		trends[currency] = AnalyzeTrend(series)
	}
	return trends
}

// BuildExchangeSnapshot assembles the finance block for a currency. A currency
// missing from the trends map is treated as stable with no change.
func BuildExchangeSnapshot(currency string, current RateTable, trends map[string]Trend) ExchangeSnapshot {
	t, ok := trends[currency]
	if !ok {
		t = Trend{Label: TrendStable}
	}
	return ExchangeSnapshot{
		Currency:    currency,
		Rate:        current.Rate(currency),
		DailyChange: t.LastChange,
		Trend:       t.Label,
		Volatile:    t.Volatile,
		Source:      current.Source,
	}
}

func allOf(values []float64, pred func(float64) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}
