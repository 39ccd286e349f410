package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/i474232898/travel-viability/internal/travel"
)

// Output formats understood by FileReportWriter.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

const (
	reportPrefix  = "reporte_ciudades_"
	summaryPrefix = "resumen_ciudades_"
	fileStamp     = "20060102_150405"
)

// SummaryHeader is the column order of the tabular summary.
var SummaryHeader = []string{
	"Ciudad", "Timestamp", "Temperatura", "Viento", "Precipitacion", "UV",
	"Tipo_Cambio", "Variacion", "Tendencia", "IVV_Score", "Nivel_Riesgo", "Alertas_Count",
}

// FileReportWriter persists each run as a structured JSON report and a flat
// summary, plus an optional Parquet copy of the summary.
type FileReportWriter struct {
	dir     string
	formats map[string]bool
	logger  zerolog.Logger
}

var _ travel.ReportWriter = (*FileReportWriter)(nil)

// NewFileReportWriter writes into dir. Unknown formats are ignored; an empty
// list means JSON and CSV.
func NewFileReportWriter(dir string, formats []string, logger zerolog.Logger) *FileReportWriter {
	set := make(map[string]bool)
	for _, f := range formats {
		switch f {
		case FormatJSON, FormatCSV, FormatParquet:
			set[f] = true
		}
	}
	if len(set) == 0 {
		set[FormatJSON] = true
		set[FormatCSV] = true
	}
	return &FileReportWriter{
		dir:     dir,
		formats: set,
		logger:  logger.With().Str("component", "report-writer").Logger(),
	}
}

// Write never fails the run: a file that cannot be written keeps an empty
// path and its cause is added to ReportFiles.Err.
func (w *FileReportWriter) Write(records []travel.RunRecord, runAt time.Time) travel.ReportFiles {
	var files travel.ReportFiles
	var errs *multierror.Error

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		files.Err = fmt.Errorf("create output dir: %w", err)
		w.logger.Error().Err(files.Err).Str("dir", w.dir).Msg("cannot write reports")
		return files
	}

	stamp := runAt.Format(fileStamp)

	if w.formats[FormatJSON] {
		path := filepath.Join(w.dir, reportPrefix+stamp+".json")
		if err := writeJSONReport(path, records); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("json report: %w", err))
		} else {
			files.JSON = path
		}
	}

	rows := make([]summaryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, newSummaryRow(r))
	}

	if w.formats[FormatCSV] {
		path := filepath.Join(w.dir, summaryPrefix+stamp+".csv")
		if err := writeCSVSummary(path, rows); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("csv summary: %w", err))
		} else {
			files.CSV = path
		}
	}

	if w.formats[FormatParquet] {
		path := filepath.Join(w.dir, summaryPrefix+stamp+".parquet")
		if err := writeParquetSummary(path, rows); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("parquet summary: %w", err))
		} else {
			files.Parquet = path
		}
	}

	files.Err = errs.ErrorOrNil()
	if files.Err != nil {
		w.logger.Error().Err(files.Err).Msg("some reports could not be written")
	} else {
		w.logger.Info().Int("records", len(records)).Str("stamp", stamp).Msg("reports written")
	}
	return files
}

// ReportClimate is the climate block of a structured report entry.
type ReportClimate struct {
	CurrentTemp   float64                `json:"temperatura_actual"`
	Forecast      []travel.DailyForecast `json:"pronostico_7_dias"`
	Precipitation float64                `json:"precipitacion"`
	Wind          float64                `json:"viento"`
	UV            float64                `json:"uv"`
}

// ReportFinance is the finance block of a structured report entry.
type ReportFinance struct {
	Rate        float64           `json:"tipo_cambio_actual"`
	DailyChange float64           `json:"variacion_diaria"`
	Trend       travel.TrendLabel `json:"tendencia_5_dias"`
}

// Report is one city entry of the structured JSON report.
type Report struct {
	Timestamp  string               `json:"timestamp"`
	City       string               `json:"ciudad"`
	Climate    ReportClimate        `json:"clima"`
	Finance    ReportFinance        `json:"finanzas"`
	TimeZone   travel.TimeInfo      `json:"zona_horaria"`
	Alerts     []travel.Alert       `json:"alertas"`
	Score      float64              `json:"ivv_score"`
	Risk       travel.RiskLevel     `json:"nivel_riesgo"`
	Components travel.IVVComponents `json:"componentes_ivv"`
}

func newJSONReport(r travel.RunRecord) Report {
	c := r.Weather.Current
	forecast := r.Weather.Daily
	if forecast == nil {
		forecast = []travel.DailyForecast{}
	}
	alerts := r.Alerts
	if alerts == nil {
		alerts = []travel.Alert{}
	}
	return Report{
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		City:      r.City.Name,
		Climate: ReportClimate{
			CurrentTemp:   c.TemperatureC,
			Forecast:      forecast,
			Precipitation: c.PrecipitationMm,
			Wind:          c.WindSpeedKmh,
			UV:            c.UVIndex,
		},
		Finance: ReportFinance{
			Rate:        r.Exchange.Rate,
			DailyChange: r.Exchange.DailyChange,
			Trend:       r.Exchange.Trend,
		},
		TimeZone:   r.Time,
		Alerts:     alerts,
		Score:      r.IVV.Score,
		Risk:       r.IVV.Risk,
		Components: r.IVV.Components,
	}
}

func writeJSONReport(path string, records []travel.RunRecord) error {
	out := make([]Report, 0, len(records))
	for _, r := range records {
		out = append(out, newJSONReport(r))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// summaryRow is one line of the flat summary, shared by CSV and Parquet.
type summaryRow struct {
	City          string  `parquet:"name=ciudad,type=BYTE_ARRAY,convertedtype=UTF8"`
	Timestamp     string  `parquet:"name=timestamp,type=BYTE_ARRAY,convertedtype=UTF8"`
	Temperature   float64 `parquet:"name=temperatura,type=DOUBLE"`
	Wind          float64 `parquet:"name=viento,type=DOUBLE"`
	Precipitation float64 `parquet:"name=precipitacion,type=DOUBLE"`
	UV            float64 `parquet:"name=uv,type=DOUBLE"`
	Rate          float64 `parquet:"name=tipo_cambio,type=DOUBLE"`
	Variation     float64 `parquet:"name=variacion,type=DOUBLE"`
	Trend         string  `parquet:"name=tendencia,type=BYTE_ARRAY,convertedtype=UTF8"`
	Score         float64 `parquet:"name=ivv_score,type=DOUBLE"`
	Risk          string  `parquet:"name=nivel_riesgo,type=BYTE_ARRAY,convertedtype=UTF8"`
	AlertCount    int32   `parquet:"name=alertas_count,type=INT32"`
}

func newSummaryRow(r travel.RunRecord) summaryRow {
	c := r.Weather.Current
	return summaryRow{
		City:          r.City.Name,
		Timestamp:     r.Timestamp.UTC().Format(time.RFC3339),
		Temperature:   c.TemperatureC,
		Wind:          c.WindSpeedKmh,
		Precipitation: c.PrecipitationMm,
		UV:            c.UVIndex,
		Rate:          r.Exchange.Rate,
		Variation:     r.Exchange.DailyChange,
		Trend:         string(r.Exchange.Trend),
		Score:         r.IVV.Score,
		Risk:          string(r.IVV.Risk),
		AlertCount:    int32(len(r.Alerts)),
	}
}

func (s summaryRow) fields() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		s.City, s.Timestamp, f(s.Temperature), f(s.Wind), f(s.Precipitation), f(s.UV),
		f(s.Rate), f(s.Variation), s.Trend, f(s.Score), s.Risk, strconv.Itoa(int(s.AlertCount)),
	}
}

func writeCSVSummary(path string, rows []summaryRow) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeParquetSummary(path string, rows []summaryRow) (err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(summaryRow), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
