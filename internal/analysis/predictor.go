package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/i474232898/travel-viability/internal/travel"
)

// Repository exposes the history of past runs without tying callers to how
// it is stored.
type Repository interface {
	ListRuns() ([]travel.RunFile, error)
	LoadAll() ([]travel.HistoryRow, error)
}

// Predictor forecasts and flags IVV scores over the accumulated history.
type Predictor struct {
	repo          Repository
	forest        IsolationForest
	contamination float64
	logger        zerolog.Logger
}

// Option customizes a Predictor.
type Option func(*Predictor)

// WithForest replaces the default isolation forest settings.
func WithForest(f IsolationForest) Option {
	return func(p *Predictor) { p.forest = f }
}

// WithContamination sets the expected outlier fraction.
func WithContamination(c float64) Option {
	return func(p *Predictor) {
		if c > 0 && c < 1 {
			p.contamination = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Predictor) { p.logger = l }
}

func NewPredictor(repo Repository, opts ...Option) *Predictor {
	p := &Predictor{
		repo: repo,
		forest: IsolationForest{
			Trees:      DefaultTrees,
			MaxSamples: DefaultMaxSamples,
			Seed:       DefaultSeed,
		},
		contamination: DefaultContamination,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Predictor) load(ctx context.Context) ([]travel.HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := p.repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rows, nil
}

// Forecast predicts the next IVV score of every city with at least two
// historical rows. Empty history yields an empty map.
func (p *Predictor) Forecast(ctx context.Context) (map[string]float64, error) {
	rows, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]float64)
	for _, r := range rows {
		series[r.City] = append(series[r.City], r.Score)
	}

	out := make(map[string]float64, len(series))
	for city, scores := range series {
		if next, ok := ForecastNext(scores); ok {
			out[city] = next
		}
	}
	p.logger.Debug().Int("rows", len(rows)).Int("cities", len(out)).Msg("forecast computed")
	return out, nil
}

// Anomalies returns the rows flagged as outliers across all cities, in
// history order.
func (p *Predictor) Anomalies(ctx context.Context) ([]travel.HistoryRow, error) {
	rows, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Score
	}

	flags := p.forest.Outliers(values, p.contamination)
	out := make([]travel.HistoryRow, 0)
	for i, flagged := range flags {
		if flagged {
			out = append(out, rows[i])
		}
	}
	p.logger.Debug().Int("rows", len(rows)).Int("anomalies", len(out)).Msg("anomaly detection finished")
	return out, nil
}
