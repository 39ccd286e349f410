package travel

import (
	"fmt"
	"io"
)

// PrintCity writes the console block for one scored city.
func PrintCity(w io.Writer, r RunRecord) {
	c := r.Weather.Current
	fmt.Fprintf(w, "\n--- %s ---\n", r.City.Name)
	fmt.Fprintf(w, "Temperatura: %vC\n", c.TemperatureC)
	fmt.Fprintf(w, "Viento: %v km/h\n", c.WindSpeedKmh)
	fmt.Fprintf(w, "Precipitacion: %v mm\n", c.PrecipitationMm)
	fmt.Fprintf(w, "UV: %v\n", c.UVIndex)
	if r.Time.LocalTime != "" {
		fmt.Fprintf(w, "Hora local: %s (%s)\n", r.Time.LocalTime, r.Time.ReferenceDiff)
	}
	fmt.Fprintf(w, "Tipo cambio: 1 USD = %v %s\n", r.Exchange.Rate, r.City.Currency)
	fmt.Fprintf(w, "Variacion: %v%%\n", r.Exchange.DailyChange)
	fmt.Fprintf(w, "Tendencia: %s\n", r.Exchange.Trend)
	fmt.Fprintf(w, "Alertas: %d\n", len(r.Alerts))
	for _, a := range r.Alerts {
		fmt.Fprintf(w, "  - %s: %s\n", a.Severity, a.Message)
	}
	fmt.Fprintf(w, "IVV: %.1f (%s)\n", r.IVV.Score, r.IVV.Risk)
}

// PrintSummary writes the end-of-run summary, including the output files
// when every one of them was written.
func PrintSummary(w io.Writer, res RunResult) {
	fmt.Fprintf(w, "\n=== RESUMEN EJECUCION ===\n")
	fmt.Fprintf(w, "Ciudades procesadas: %d/%d\n", res.Processed(), res.Total)
	for _, r := range res.Records {
		fmt.Fprintf(w, "%s: IVV %.1f (%s) - Alertas: %d\n", r.City.Name, r.IVV.Score, r.IVV.Risk, len(r.Alerts))
	}

	if res.Files.JSON != "" && res.Files.CSV != "" {
		fmt.Fprintln(w, "Archivos generados exitosamente:")
		fmt.Fprintf(w, "JSON: %s\n", res.Files.JSON)
		fmt.Fprintf(w, "CSV: %s\n", res.Files.CSV)
		if res.Files.Parquet != "" {
			fmt.Fprintf(w, "Parquet: %s\n", res.Files.Parquet)
		}
	}
}
