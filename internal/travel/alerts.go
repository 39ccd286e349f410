package travel

import "fmt"

// Alert thresholds on current conditions. All comparisons are strict.
const (
	MaxComfortTempC     = 35.0
	MinComfortTempC     = 0.0
	MaxPrecipitationMm  = 5.0
	MaxWindSpeedKmh     = 50.0
	MaxUVIndexThreshold = 8.0
)

// EvaluateAlerts checks every rule independently and returns the ones that
// fire, in rule order. The result is never nil.
func EvaluateAlerts(c CurrentConditions) []Alert {
	alerts := make([]Alert, 0, 4)

	if c.TemperatureC > MaxComfortTempC || c.TemperatureC < MinComfortTempC {
		alerts = append(alerts, Alert{
			Category: CategoryClimate,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Temperatura crítica: %v°C", c.TemperatureC),
		})
	}

	if c.PrecipitationMm > MaxPrecipitationMm {
		alerts = append(alerts, Alert{
			Category: CategoryClimate,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Precipitación alta: %vmm", c.PrecipitationMm),
		})
	}

	if c.WindSpeedKmh > MaxWindSpeedKmh {
		alerts = append(alerts, Alert{
			Category: CategoryClimate,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Viento fuerte: %v km/h", c.WindSpeedKmh),
		})
	}

	if c.UVIndex > MaxUVIndexThreshold {
		alerts = append(alerts, Alert{
			Category: CategoryClimate,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Índice UV muy alto: %v", c.UVIndex),
		})
	}

	return alerts
}

// HasSeverity reports whether any alert carries the given severity.
func HasSeverity(alerts []Alert, s Severity) bool {
	for _, a := range alerts {
		if a.Severity == s {
			return true
		}
	}
	return false
}
