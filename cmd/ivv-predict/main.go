package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/i474232898/travel-viability/internal/app"
	"github.com/i474232898/travel-viability/internal/config"
	"github.com/i474232898/travel-viability/internal/logging"
)

// ivv-predict forecasts the next IVV per city and lists outlier scores from
// every summary accumulated in the output directory.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	history, predictor := app.BuildAnalysis(cfg, log)
	ctx := context.Background()

	runs, err := history.ListRuns()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list historical runs")
	}
	fmt.Fprintf(os.Stdout, "Archivos historicos: %d\n", len(runs))

	forecast, err := predictor.Forecast(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("forecast failed")
	}
	cities := make([]string, 0, len(forecast))
	for city := range forecast {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	fmt.Fprintln(os.Stdout, "\n=== PREDICCION IVV ===")
	if len(cities) == 0 {
		fmt.Fprintln(os.Stdout, "Sin datos suficientes")
	}
	for _, city := range cities {
		fmt.Fprintf(os.Stdout, "%s: %.2f\n", city, forecast[city])
	}

	anomalies, err := predictor.Anomalies(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("anomaly detection failed")
	}
	fmt.Fprintln(os.Stdout, "\n=== ANOMALIAS DETECTADAS ===")
	if len(anomalies) == 0 {
		fmt.Fprintln(os.Stdout, "Ninguna")
	}
	for _, a := range anomalies {
		fmt.Fprintf(os.Stdout, "%s: IVV %.1f (%s)\n", a.City, a.Score, a.Risk)
	}
}
