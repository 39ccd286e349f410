package travel

import (
	"time"
)

// Severity is the urgency of a triggered alert.
type Severity string

const (
	SeverityHigh   Severity = "ALTA"
	SeverityMedium Severity = "MEDIA"
)

// CategoryClimate tags alerts derived from current weather conditions.
const CategoryClimate = "CLIMA"

// RiskLevel is the four-tier classification of an IVV score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "BAJO"
	RiskMedium   RiskLevel = "MEDIO"
	RiskHigh     RiskLevel = "ALTO"
	RiskCritical RiskLevel = "CRÍTICO"
)

// TrendLabel classifies the recent direction of an exchange rate.
type TrendLabel string

const (
	TrendRising  TrendLabel = "positiva"
	TrendFalling TrendLabel = "negativa"
	TrendStable  TrendLabel = "estable"
)

// DataSource tells whether a value came from the upstream API or from a
// configured substitute.
type DataSource string

const (
	SourceLive     DataSource = "live"
	SourceFallback DataSource = "fallback"
)

// City is a tracked destination. The configured list is immutable for a run.
type City struct {
	Name      string  `json:"name" yaml:"name" validate:"required"`
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Currency  string  `json:"currency" yaml:"currency" validate:"required,len=3"`
	Timezone  string  `json:"timezone" yaml:"timezone" validate:"required"`
	Country   string  `json:"country,omitempty" yaml:"country,omitempty"`
}

// HasCoordinates reports whether the city carries a usable position.
func (c City) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// CurrentConditions holds the fields the alert rules and IVV look at.
type CurrentConditions struct {
	TemperatureC    float64 `json:"temperature"`
	WindSpeedKmh    float64 `json:"windSpeed"`
	PrecipitationMm float64 `json:"precipitation"`
	UVIndex         float64 `json:"uvIndex"`
}

// DailyForecast is one day of the forward forecast.
type DailyForecast struct {
	Date                     string  `json:"fecha"`
	TempMax                  float64 `json:"temp_max"`
	TempMin                  float64 `json:"temp_min"`
	PrecipitationProbability float64 `json:"precipitacion"`
}

// WeatherSnapshot is produced once per city per run and never mutated.
// Daily holds at most MaxForecastDays entries ordered by date.
type WeatherSnapshot struct {
	Current CurrentConditions `json:"current"`
	Daily   []DailyForecast   `json:"daily"`
}

// MaxForecastDays bounds WeatherSnapshot.Daily.
const MaxForecastDays = 7

// Alert is a threshold-triggered warning for a city.
type Alert struct {
	Category string   `json:"tipo"`
	Severity Severity `json:"severidad"`
	Message  string   `json:"mensaje"`
}

// RateTable maps 3-letter currency codes to USD-relative rates.
// Source and Err let callers tell a substituted table from a live one.
type RateTable struct {
	Base   string             `json:"base"`
	Rates  map[string]float64 `json:"rates"`
	Source DataSource         `json:"source"`
	Err    error              `json:"-"`
}

// Rate returns the rate for currency, or 1.0 when the table does not carry it.
func (t RateTable) Rate(currency string) float64 {
	if r, ok := t.Rates[currency]; ok {
		return r
	}
	return 1.0
}

// ExchangeSnapshot is the per-city finance block of a run.
type ExchangeSnapshot struct {
	Currency    string     `json:"currency"`
	Rate        float64    `json:"rate"`
	DailyChange float64    `json:"dailyChange"`
	Trend       TrendLabel `json:"trend"`
	Volatile    bool       `json:"volatile"`
	Source      DataSource `json:"source"`
}

// Stable reports whether the currency counts as stable for IVV scoring.
func (e ExchangeSnapshot) Stable() bool {
	return e.Trend == TrendStable
}

// TimeInfo is informational only and never influences scoring.
type TimeInfo struct {
	LocalTime     string     `json:"hora_local"`
	Zone          string     `json:"zona"`
	UTCOffset     string     `json:"utc_offset"`
	ReferenceDiff string     `json:"diferencia_referencia"`
	Source        DataSource `json:"-"`
	Err           error      `json:"-"`
}

// IVVComponents are the three weighted sub-scores of an IVV result.
type IVVComponents struct {
	Climate  int `json:"clima_score"`
	Exchange int `json:"cambio_score"`
	UV       int `json:"uv_score"`
}

// IVVResult is computed deterministically and is immutable once built.
type IVVResult struct {
	Score      float64       `json:"ivv_score"`
	Risk       RiskLevel     `json:"nivel_riesgo"`
	Components IVVComponents `json:"componentes_ivv"`
}

// RunRecord is everything a run knows about one successfully fetched city.
type RunRecord struct {
	City      City             `json:"city"`
	Timestamp time.Time        `json:"timestamp"` // always UTC
	Weather   WeatherSnapshot  `json:"weather"`
	Exchange  ExchangeSnapshot `json:"exchange"`
	Time      TimeInfo         `json:"time"`
	Alerts    []Alert          `json:"alerts"`
	IVV       IVVResult        `json:"ivv"`
}

// HistoryRow is the flattened summary row read back from past runs.
type HistoryRow struct {
	City      string    `json:"ciudad"`
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"ivv_score"`
	Risk      RiskLevel `json:"nivel_riesgo"`
}

// RunFile identifies one persisted tabular summary.
type RunFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"modTime"`
}

// ReportFiles lists what the report writer produced. A path is empty when
// that file could not be written; Err aggregates the causes.
type ReportFiles struct {
	JSON    string `json:"json,omitempty"`
	CSV     string `json:"csv,omitempty"`
	Parquet string `json:"parquet,omitempty"`
	Err     error  `json:"-"`
}

// RunResult summarizes one batch execution.
type RunResult struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Skipped   []string      `json:"skipped,omitempty"`
	Records   []RunRecord   `json:"records"`
	Rates     RateTable     `json:"rates"`
	Files     ReportFiles   `json:"files"`
}

// Processed is the number of cities that made it into the result set.
func (r RunResult) Processed() int {
	return len(r.Records)
}
