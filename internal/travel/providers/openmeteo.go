package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-viability/internal/travel"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements travel.WeatherProvider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// Ensure OpenMeteoProvider implements travel.WeatherProvider.
var _ travel.WeatherProvider = (*OpenMeteoProvider)(nil)

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("openmeteo", cfg.Breaker),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoCurrent struct {
	Temperature   *float64 `json:"temperature_2m" validate:"required"`
	WindSpeed     *float64 `json:"wind_speed_10m" validate:"required"`
	Precipitation *float64 `json:"precipitation" validate:"required"`
	UVIndex       *float64 `json:"uv_index" validate:"required"`
}

type openMeteoDaily struct {
	Time                 []string  `json:"time"`
	TemperatureMax       []float64 `json:"temperature_2m_max"`
	TemperatureMin       []float64 `json:"temperature_2m_min"`
	PrecipitationProbMax []float64 `json:"precipitation_probability_max"`
}

type openMeteoPayload struct {
	Current *openMeteoCurrent `json:"current" validate:"required"`
	Daily   openMeteoDaily    `json:"daily"`
}

func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, city travel.City) (travel.WeatherSnapshot, error) {
	if !city.HasCoordinates() {
		return travel.WeatherSnapshot{}, fmt.Errorf("openmeteo requires latitude and longitude for %s", city.Name)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(city.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(city.Longitude, 'f', -1, 64))
		values.Set("current", "temperature_2m,wind_speed_10m,precipitation,uv_index")
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max")
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return travel.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := decodePayload(resp.Body, &payload); err != nil {
		return travel.WeatherSnapshot{}, err
	}

	return travel.WeatherSnapshot{
		Current: travel.CurrentConditions{
			TemperatureC:    *payload.Current.Temperature,
			WindSpeedKmh:    *payload.Current.WindSpeed,
			PrecipitationMm: *payload.Current.Precipitation,
			UVIndex:         *payload.Current.UVIndex,
		},
		Daily: buildDailyForecast(payload.Daily),
	}, nil
}

// buildDailyForecast keeps at most seven days. Arrays shorter than the date
// list leave the missing values at zero.
func buildDailyForecast(d openMeteoDaily) []travel.DailyForecast {
	n := len(d.Time)
	if n > travel.MaxForecastDays {
		n = travel.MaxForecastDays
	}

	days := make([]travel.DailyForecast, 0, n)
	for i := 0; i < n; i++ {
		day := travel.DailyForecast{Date: d.Time[i]}
		if i < len(d.TemperatureMax) {
			day.TempMax = d.TemperatureMax[i]
		}
		if i < len(d.TemperatureMin) {
			day.TempMin = d.TemperatureMin[i]
		}
		if i < len(d.PrecipitationProbMax) {
			day.PrecipitationProbability = d.PrecipitationProbMax[i]
		}
		days = append(days, day)
	}
	return days
}
