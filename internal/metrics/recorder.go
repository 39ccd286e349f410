package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/travel-viability/internal/travel"
)

// PrometheusRecorder implements travel.Recorder on a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDuration    prometheus.Histogram
	runsTotal      *prometheus.CounterVec
	citiesTotal    *prometheus.CounterVec
	skipsTotal     *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	ivvScore       *prometheus.GaugeVec
}

var _ travel.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the recorder and registers Go and process
// collectors alongside the travel metrics.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "travel_run_duration_seconds",
			Help:    "Duration of batch runs.",
			Buckets: prometheus.DefBuckets,
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_runs_total",
			Help: "Batch runs by outcome.",
		}, []string{"outcome"}), // complete, partial, empty
		citiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_cities_scored_total",
			Help: "Cities scored, by risk tier.",
		}, []string{"city", "risk"}),
		skipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_cities_skipped_total",
			Help: "Cities skipped because no weather data was available.",
		}, []string{"city"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_provider_fallbacks_total",
			Help: "Times a provider answer was replaced by configured fallback values.",
		}, []string{"provider"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_alerts_total",
			Help: "Triggered alerts by severity.",
		}, []string{"severity"}),
		ivvScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "travel_ivv_score",
			Help: "Latest IVV score per city.",
		}, []string{"city"}),
	}

	registry.MustRegister(r.runDuration)
	registry.MustRegister(r.runsTotal)
	registry.MustRegister(r.citiesTotal)
	registry.MustRegister(r.skipsTotal)
	registry.MustRegister(r.fallbacksTotal)
	registry.MustRegister(r.alertsTotal)
	registry.MustRegister(r.ivvScore)

	return r
}

// Handler serves the registry in the exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) RecordCity(rec travel.RunRecord) {
	r.citiesTotal.WithLabelValues(rec.City.Name, string(rec.IVV.Risk)).Inc()
	r.ivvScore.WithLabelValues(rec.City.Name).Set(rec.IVV.Score)
	for _, a := range rec.Alerts {
		r.alertsTotal.WithLabelValues(string(a.Severity)).Inc()
	}
}

func (r *PrometheusRecorder) RecordSkip(city travel.City) {
	r.skipsTotal.WithLabelValues(city.Name).Inc()
}

func (r *PrometheusRecorder) RecordFallback(provider string) {
	r.fallbacksTotal.WithLabelValues(provider).Inc()
}

func (r *PrometheusRecorder) RecordRun(res travel.RunResult) {
	r.runDuration.Observe(res.Duration.Seconds())

	outcome := "complete"
	switch {
	case res.Processed() == 0:
		outcome = "empty"
	case res.Processed() < res.Total:
		outcome = "partial"
	}
	r.runsTotal.WithLabelValues(outcome).Inc()
}
