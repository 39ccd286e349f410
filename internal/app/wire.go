package app

import (
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/i474232898/travel-viability/internal/analysis"
	"github.com/i474232898/travel-viability/internal/config"
	"github.com/i474232898/travel-viability/internal/metrics"
	"github.com/i474232898/travel-viability/internal/notify"
	"github.com/i474232898/travel-viability/internal/store"
	"github.com/i474232898/travel-viability/internal/travel"
	"github.com/i474232898/travel-viability/internal/travel/providers"
)

// Components is everything the binaries need, built from one config.
type Components struct {
	Service   *travel.Service
	Metrics   *metrics.PrometheusRecorder
	History   *store.CSVHistory
	Predictor *analysis.Predictor
}

// Build wires providers, report writer, notifier and metrics into a service.
func Build(cfg *config.AppConfig, logger zerolog.Logger) *Components {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	newHTTPConfig := func() providers.HTTPClientConfig {
		c := providers.HTTPClientConfig{
			Client:  httpClient,
			Breaker: providers.BreakerConfig{MaxConsecutiveFailures: cfg.BreakerMaxFailures},
		}
		if cfg.ProviderRateLimit > 0 {
			burst := cfg.ProviderBurst
			if burst <= 0 {
				burst = 1
			}
			c.Limiter = rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), burst)
		}
		return c
	}

	cities := providers.NewCityGeocoder(cfg.GeocoderAPIKey, logger).Resolve(cfg.Cities)

	weather := providers.NewOpenMeteoProvider(newHTTPConfig(), cfg.WeatherBaseURL)
	rates := providers.NewCachedRateProvider(
		providers.NewExchangeRateProvider(newHTTPConfig(), cfg.ExchangeBaseURL, cfg.ExchangeFallback),
		cfg.RateCacheTTL,
	)
	clock := providers.NewWorldTimeProvider(newHTTPConfig(), cfg.TimezoneBaseURL, cfg.ReferenceUTCOffset, cfg.TimezoneFallback)
	history := providers.NewSimulatedHistory(cfg.HistoryJitter, cfg.HistorySeed)

	writer := store.NewFileReportWriter(cfg.OutputDir, cfg.ReportFormats, logger)

	notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		notifier = nil
	}

	recorder := metrics.NewPrometheusRecorder()

	opts := []travel.Option{
		travel.WithRecorder(recorder),
		travel.WithLogger(logger.With().Str("component", "service").Logger()),
		travel.WithHistoryDays(cfg.HistoryDays),
	}
	if notifier != nil {
		opts = append(opts, travel.WithNotifier(notifier))
	}

	service := travel.NewService(cities, weather, rates, history, clock, writer, opts...)

	csvHistory, predictor := BuildAnalysis(cfg, logger)

	return &Components{
		Service:   service,
		Metrics:   recorder,
		History:   csvHistory,
		Predictor: predictor,
	}
}

// BuildAnalysis wires only the history reader and predictor. It makes no
// network calls.
func BuildAnalysis(cfg *config.AppConfig, logger zerolog.Logger) (*store.CSVHistory, *analysis.Predictor) {
	history := store.NewCSVHistory(cfg.OutputDir, logger)
	predictor := analysis.NewPredictor(history,
		analysis.WithForest(analysis.IsolationForest{
			Trees:      cfg.AnomalyTrees,
			MaxSamples: analysis.DefaultMaxSamples,
			Seed:       cfg.AnomalySeed,
		}),
		analysis.WithContamination(cfg.AnomalyContamination),
		analysis.WithLogger(logger.With().Str("component", "analysis").Logger()),
	)
	return history, predictor
}
