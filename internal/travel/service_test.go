package travel_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/travel-viability/internal/config"
	"github.com/i474232898/travel-viability/internal/store"
	"github.com/i474232898/travel-viability/internal/travel"
	"github.com/i474232898/travel-viability/internal/travel/providers"
)

type fakeWeather struct {
	fail map[string]bool
}

func (fakeWeather) Name() string { return "fake-weather" }

func (f fakeWeather) FetchWeather(_ context.Context, city travel.City) (travel.WeatherSnapshot, error) {
	if f.fail[city.Name] {
		return travel.WeatherSnapshot{}, errors.New("upstream timeout")
	}
	return travel.WeatherSnapshot{
		Current: travel.CurrentConditions{TemperatureC: 22, WindSpeedKmh: 10, PrecipitationMm: 0, UVIndex: 4},
		Daily:   []travel.DailyForecast{{Date: "2024-01-01", TempMax: 25, TempMin: 15}},
	}, nil
}

type fakeClock struct{}

func (fakeClock) Name() string { return "fake-clock" }

func (fakeClock) LocalTime(_ context.Context, zone string) travel.TimeInfo {
	return travel.TimeInfo{Zone: zone, UTCOffset: "+00:00", ReferenceDiff: "+5 horas", Source: travel.SourceLive}
}

// flatHistory returns identical tables, so every currency is stable.
type flatHistory struct{}

func (flatHistory) History(_ context.Context, current travel.RateTable, days int) []travel.RateTable {
	out := make([]travel.RateTable, days)
	for i := range out {
		out[i] = current
	}
	return out
}

type countingRecorder struct {
	cities, skips, runs int
	fallbacks           []string
}

func (r *countingRecorder) RecordCity(travel.RunRecord) { r.cities++ }
func (r *countingRecorder) RecordSkip(travel.City)      { r.skips++ }
func (r *countingRecorder) RecordFallback(p string)     { r.fallbacks = append(r.fallbacks, p) }
func (r *countingRecorder) RecordRun(travel.RunResult)  { r.runs++ }

func failingServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func liveRatesServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"USD":1,"GBP":0.8,"JPY":151,"BRL":5.0,"AUD":1.5}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, weather travel.WeatherProvider, ratesURL string, rec *countingRecorder) (*travel.Service, string) {
	dir := t.TempDir()
	httpCfg := providers.HTTPClientConfig{Client: &http.Client{Timeout: time.Second}}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := travel.NewService(
		config.DefaultCities(),
		weather,
		providers.NewExchangeRateProvider(httpCfg, ratesURL, nil),
		flatHistory{},
		fakeClock{},
		store.NewFileReportWriter(dir, nil, zerolog.Nop()),
		travel.WithRecorder(rec),
		travel.WithClock(func() time.Time { return fixed }),
	)
	return svc, dir
}

func TestRunSkipsCityWithoutWeather(t *testing.T) {
	rec := &countingRecorder{}
	svc, _ := newService(t, fakeWeather{fail: map[string]bool{"Londres": true}}, liveRatesServer(t).URL, rec)

	res := svc.Run(context.Background())

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.Processed())
	assert.Equal(t, []string{"Londres"}, res.Skipped)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, rec.cities)
	assert.Equal(t, 1, rec.skips)
	assert.Equal(t, 1, rec.runs)
	assert.Empty(t, rec.fallbacks)

	require.NoError(t, res.Files.Err)
	jsonData, err := os.ReadFile(res.Files.JSON)
	require.NoError(t, err)
	var reports []store.Report
	require.NoError(t, json.Unmarshal(jsonData, &reports))
	require.Len(t, reports, 4)
	for _, r := range reports {
		assert.NotEqual(t, "Londres", r.City)
		assert.Equal(t, 100.0, r.Score)
	}

	f, err := os.Open(res.Files.CSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, row := range rows[1:] {
		assert.NotEqual(t, "Londres", row[0])
	}

	var out bytes.Buffer
	travel.PrintSummary(&out, res)
	assert.Contains(t, out.String(), "Ciudades procesadas: 4/5")
	assert.Contains(t, out.String(), "JSON: "+res.Files.JSON)
	assert.NotContains(t, out.String(), "Londres")
}

func TestRunUsesFallbackRatesWhenExchangeFails(t *testing.T) {
	rec := &countingRecorder{}
	svc, _ := newService(t, fakeWeather{}, failingServer(t).URL, rec)

	res := svc.Run(context.Background())

	require.Equal(t, 5, res.Processed())
	assert.Equal(t, travel.SourceFallback, res.Rates.Source)
	assert.Error(t, res.Rates.Err)
	assert.Equal(t, []string{"exchangerate-api"}, rec.fallbacks)

	want := map[string]float64{"USD": 1.0, "GBP": 0.78, "JPY": 149.50, "BRL": 5.45, "AUD": 1.55}
	for _, r := range res.Records {
		assert.Equal(t, want[r.City.Currency], r.Exchange.Rate, r.City.Name)
		assert.Equal(t, travel.SourceFallback, r.Exchange.Source)
		assert.Equal(t, travel.TrendStable, r.Exchange.Trend)
		assert.Equal(t, 100, r.IVV.Components.Exchange)
	}
}

func TestRunAllWeatherFailsWritesEmptyReports(t *testing.T) {
	fail := map[string]bool{}
	for _, c := range config.DefaultCities() {
		fail[c.Name] = true
	}
	svc, _ := newService(t, fakeWeather{fail: fail}, liveRatesServer(t).URL, &countingRecorder{})

	res := svc.Run(context.Background())
	assert.Equal(t, 0, res.Processed())
	assert.Len(t, res.Skipped, 5)
	assert.NotEmpty(t, res.Files.JSON)

	var out bytes.Buffer
	travel.PrintSummary(&out, res)
	assert.Contains(t, out.String(), "Ciudades procesadas: 0/5")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	svc, _ := newService(t, fakeWeather{}, liveRatesServer(t).URL, &countingRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.Run(ctx)

	assert.Equal(t, 0, res.Processed())
	assert.Empty(t, res.Skipped)
	assert.NotEmpty(t, res.Files.CSV)
}

func TestPrintCity(t *testing.T) {
	alerts := travel.EvaluateAlerts(travel.CurrentConditions{TemperatureC: 38})
	rec := travel.RunRecord{
		City:     travel.City{Name: "Tokio", Currency: "JPY"},
		Weather:  travel.WeatherSnapshot{Current: travel.CurrentConditions{TemperatureC: 38}},
		Exchange: travel.ExchangeSnapshot{Rate: 149.5, Trend: travel.TrendStable},
		Time:     travel.TimeInfo{LocalTime: "2024-01-01T21:00:00", ReferenceDiff: "+14 horas"},
		Alerts:   alerts,
		IVV:      travel.CalculateIVV(alerts, 0, true),
	}

	var out bytes.Buffer
	travel.PrintCity(&out, rec)
	text := out.String()
	assert.True(t, strings.Contains(text, "--- Tokio ---"))
	assert.Contains(t, text, "Tipo cambio: 1 USD = 149.5 JPY")
	assert.Contains(t, text, "Hora local: 2024-01-01T21:00:00 (+14 horas)")
	assert.Contains(t, text, "ALTA: Temperatura crítica: 38°C")
	assert.Contains(t, text, "IVV: 90.0 (BAJO)")
}
