package travel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultHistoryDays is the length of the exchange history used for trends.
const DefaultHistoryDays = 5

// Service runs one batch over the configured cities: providers are queried,
// alerts and IVV computed, and the whole result set handed to the report
// writer. Cities are processed one at a time.
type Service struct {
	cities      []City
	weather     WeatherProvider
	rates       RateProvider
	history     HistorySource
	clock       TimeProvider
	writer      ReportWriter
	notifier    Notifier
	recorder    Recorder
	historyDays int
	logger      zerolog.Logger
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier sets the notifier told about every scored city.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHistoryDays sets the exchange history length.
func WithHistoryDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(
	cities []City,
	weather WeatherProvider,
	rates RateProvider,
	history HistorySource,
	clock TimeProvider,
	writer ReportWriter,
	opts ...Option,
) *Service {
	s := &Service{
		cities:      cities,
		weather:     weather,
		rates:       rates,
		history:     history,
		clock:       clock,
		writer:      writer,
		notifier:    nopNotifier{},
		recorder:    nopRecorder{},
		historyDays: DefaultHistoryDays,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cities returns the configured city list.
func (s *Service) Cities() []City {
	return s.cities
}

// Run executes one full batch. A city whose weather cannot be fetched is left
// out of the records and listed in Skipped; exchange and time-zone problems
// never drop a city. If ctx is cancelled the remaining cities are not
// attempted, and whatever was already scored is still written.
func (s *Service) Run(ctx context.Context) RunResult {
	start := s.now().UTC()
	result := RunResult{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Total:     len(s.cities),
	}
	log := s.logger.With().Str("run_id", result.RunID).Logger()
	log.Info().Int("cities", len(s.cities)).Msg("starting batch run")

	rates := s.rates.Rates(ctx)
	if rates.Source == SourceFallback {
		log.Warn().Err(rates.Err).Str("provider", s.rates.Name()).Msg("exchange rates unavailable, using fallback table")
		s.recorder.RecordFallback(s.rates.Name())
	}
	result.Rates = rates
	trends := AnalyzeHistory(s.history.History(ctx, rates, s.historyDays))

	records := make([]RunRecord, 0, len(s.cities))
	for _, city := range s.cities {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Str("city", city.Name).Msg("run interrupted, remaining cities not processed")
			break
		}

		log.Info().Str("city", city.Name).Msg("processing city")
		record, err := s.processCity(ctx, city, rates, trends)
		if err != nil {
			log.Error().Err(err).Str("city", city.Name).Msg("collection failed, city skipped")
			result.Skipped = append(result.Skipped, city.Name)
			s.recorder.RecordSkip(city)
			continue
		}

		records = append(records, record)
		s.recorder.RecordCity(record)
		if err := s.notifier.NotifyRecord(ctx, record); err != nil {
			log.Warn().Err(err).Str("city", city.Name).Msg("notification failed")
		}
	}
	result.Records = records

	result.Files = s.writer.Write(records, start)
	if result.Files.Err != nil {
		log.Error().Err(result.Files.Err).Msg("report output incomplete")
	}

	result.Duration = s.now().Sub(start)
	s.recorder.RecordRun(result)
	log.Info().
		Int("processed", result.Processed()).
		Int("total", result.Total).
		Dur("duration", result.Duration).
		Msg("batch run finished")

	return result
}

func (s *Service) processCity(ctx context.Context, city City, rates RateTable, trends map[string]Trend) (RunRecord, error) {
	snapshot, err := s.weather.FetchWeather(ctx, city)
	if err != nil {
		return RunRecord{}, fmt.Errorf("weather from %s: %w", s.weather.Name(), err)
	}

	tz := s.clock.LocalTime(ctx, city.Timezone)
	if tz.Source == SourceFallback {
		s.logger.Warn().Err(tz.Err).Str("zone", city.Timezone).Msg("time zone lookup failed, using fallback table")
		s.recorder.RecordFallback(s.clock.Name())
	}

	exchange := BuildExchangeSnapshot(city.Currency, rates, trends)
	alerts := EvaluateAlerts(snapshot.Current)
	ivv := CalculateIVV(alerts, snapshot.Current.UVIndex, exchange.Stable())

	return RunRecord{
		City:      city,
		Timestamp: s.now().UTC(),
		Weather:   snapshot,
		Exchange:  exchange,
		Time:      tz,
		Alerts:    alerts,
		IVV:       ivv,
	}, nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyRecord(context.Context, RunRecord) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordCity(RunRecord)  {}
func (nopRecorder) RecordSkip(City)       {}
func (nopRecorder) RecordFallback(string) {}
func (nopRecorder) RecordRun(RunResult)   {}
