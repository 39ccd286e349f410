package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/travel-viability/internal/metrics"
	"github.com/i474232898/travel-viability/internal/store"
	"github.com/i474232898/travel-viability/internal/travel"
)

type stubReports struct {
	reports []store.Report
	err     error
}

func (s stubReports) LatestReport() (travel.RunFile, []store.Report, error) {
	return travel.RunFile{Name: "reporte_ciudades_20240101_000000.json"}, s.reports, s.err
}

type stubAnalysis struct{}

func (stubAnalysis) Forecast(context.Context) (map[string]float64, error) {
	return map[string]float64{"Tokio": 72.5}, nil
}

func (stubAnalysis) Anomalies(context.Context) ([]travel.HistoryRow, error) {
	return []travel.HistoryRow{{City: "Londres", Score: 30, Risk: travel.RiskCritical}}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	mem := store.NewMemoryStore(10, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []float64{70, 85} {
		mem.SaveRecord(travel.RunRecord{
			City:      travel.City{Name: "Tokio"},
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			IVV:       travel.IVVResult{Score: score, Risk: travel.ClassifyRisk(score)},
		})
	}

	RegisterRoutes(app, Deps{
		Records:  mem,
		Reports:  stubReports{reports: []store.Report{{City: "Tokio"}, {City: "Londres"}}},
		Analysis: stubAnalysis{},
		Metrics:  metrics.NewPrometheusRecorder().Handler(),
	})
	return app, mem
}

func get(t *testing.T, app *fiber.App, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	return resp, decoded
}

// TestHistoryValidation verifies that the history endpoint enforces its
// query parameters.
func TestHistoryValidation(t *testing.T) {
	app, _ := newTestApp(t)

	// Missing city.
	resp, body := get(t, app, "/api/v1/ivv/history?from=0&to=10")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["error"])

	// Missing range.
	resp, _ = get(t, app, "/api/v1/ivv/history?city=Tokio")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// to before from.
	resp, _ = get(t, app, "/api/v1/ivv/history?city=Tokio&from=2024-01-02T00:00:00Z&to=2024-01-01T00:00:00Z")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Bad time format.
	resp, _ = get(t, app, "/api/v1/ivv/history?city=Tokio&from=yesterday&to=today")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/ivv/history?city=tokio&from=2024-01-01T00:00:00Z&to=2024-01-01T00:30:00Z")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	points := body["points"].([]any)
	require.Len(t, points, 1)
	assert.Equal(t, 70.0, points[0].(map[string]any)["ivv_score"])

	resp, _ = get(t, app, "/api/v1/ivv/history?city=Lima&from=0&to=1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatest(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := get(t, app, "/api/v1/ivv/latest")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := get(t, app, "/api/v1/ivv/latest?city=Tokio")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 85.0, body["ivv"].(map[string]any)["ivv_score"])

	resp, body = get(t, app, "/api/v1/ivv/cities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"Tokio"}, body["cities"])
}

func TestLatestReport(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/report/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["ciudades"], 2)

	resp, body = get(t, app, "/api/v1/report/latest?city=londres")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["ciudades"], 1)

	resp, _ = get(t, app, "/api/v1/report/latest?city=Lima")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestReportMissing(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{Reports: stubReports{err: store.ErrNotFound}})

	resp, _ := get(t, app, "/api/v1/report/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalysisAndMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/analysis/forecast")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 72.5, body["forecast"].(map[string]any)["Tokio"])

	resp, body = get(t, app, "/api/v1/analysis/anomalies")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["anomalies"], 1)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "go_goroutines")
}
