package travel

import "github.com/i474232898/travel-viability/internal/common"

// Fixed IVV weights. They sum to 1.
const (
	WeightClimate  = 0.4
	WeightExchange = 0.3
	WeightUV       = 0.3
)

// ClimateScore is 100 minus 25 per alert, floored at 0.
func ClimateScore(alertCount int) int {
	score := 100 - 25*alertCount
	if score < 0 {
		return 0
	}
	return score
}

// ExchangeScore rewards a stable currency.
func ExchangeScore(stable bool) int {
	if stable {
		return 100
	}
	return 50
}

// UVScore buckets the UV index: below 6, 6 through 8, above 8.
func UVScore(uv float64) int {
	switch {
	case uv < 6:
		return 100
	case uv <= 8:
		return 75
	default:
		return 50
	}
}

// ClassifyRisk maps a score onto its tier. Each band is closed below.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	case score >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ComposeIVV combines already computed sub-scores into a result. The score is
// rounded to one decimal before the tier is assigned so both always agree.
func ComposeIVV(c IVVComponents) IVVResult {
	raw := WeightClimate*float64(c.Climate) +
		WeightExchange*float64(c.Exchange) +
		WeightUV*float64(c.UV)
	score := common.Round(raw, 1)

	return IVVResult{
		Score:      score,
		Risk:       ClassifyRisk(score),
		Components: c,
	}
}

// CalculateIVV scores a city from its alerts, UV index and currency stability.
// It never rejects input.
func CalculateIVV(alerts []Alert, uv float64, exchangeStable bool) IVVResult {
	return ComposeIVV(IVVComponents{
		Climate:  ClimateScore(len(alerts)),
		Exchange: ExchangeScore(exchangeStable),
		UV:       UVScore(uv),
	})
}
