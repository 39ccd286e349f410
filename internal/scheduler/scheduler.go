package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/travel-viability/internal/travel"
)

// Runner executes one batch run.
type Runner interface {
	Run(ctx context.Context) travel.RunResult
}

// Sink receives every finished run.
type Sink interface {
	SaveRun(res travel.RunResult)
}

// Scheduler periodically runs the batch. Runs never overlap: a tick that
// fires while a run is in progress waits for it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	sink      Sink
	interval  time.Duration
	cronExpr  string
	timeout   time.Duration
	logger    zerolog.Logger

	mu   sync.Mutex
	last travel.RunResult
	runs int
}

// New creates a new Scheduler. A non-empty cronExpr takes precedence over
// interval. timeout bounds a single run; zero means no bound.
func New(runner Runner, sink Sink, interval time.Duration, cronExpr string, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		sink:      sink,
		interval:  interval,
		cronExpr:  cronExpr,
		timeout:   timeout,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// Interval jobs fire once immediately.
func (s *Scheduler) Start() error {
	var err error
	if s.cronExpr != "" {
		_, err = s.scheduler.Cron(s.cronExpr).Do(s.runOnce)
	} else {
		interval := s.interval
		if interval <= 0 {
			interval = 15 * time.Minute
		}
		_, err = s.scheduler.Every(interval).Do(s.runOnce)
	}
	if err != nil {
		return err
	}

	s.logger.Info().Str("cron", s.cronExpr).Dur("interval", s.interval).Msg("scheduler started")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info().Msg("running travel batch job")
	res := s.runner.Run(ctx)
	if s.sink != nil {
		s.sink.SaveRun(res)
	}

	s.mu.Lock()
	s.last = res
	s.runs++
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", res.RunID).
		Int("processed", res.Processed()).
		Int("total", res.Total).
		Msg("completed travel batch job")
}

// Last returns the most recent run and how many runs have finished.
func (s *Scheduler) Last() (travel.RunResult, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.runs
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
