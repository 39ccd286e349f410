package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/travel-viability/internal/app"
	"github.com/i474232898/travel-viability/internal/config"
	"github.com/i474232898/travel-viability/internal/logging"
	"github.com/i474232898/travel-viability/internal/travel"
)

// ivv-batch runs a single batch over the configured cities and prints the
// per-city blocks and the execution summary.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components := app.Build(cfg, log)
	res := components.Service.Run(ctx)

	for _, r := range res.Records {
		travel.PrintCity(os.Stdout, r)
	}
	travel.PrintSummary(os.Stdout, res)
}
