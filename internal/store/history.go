package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/travel-viability/internal/travel"
)

// timestamp layouts accepted when reading summaries back
var historyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// CSVHistory reads past runs from the summary files of an output directory.
// File names carry the run timestamp, so name order is arrival order.
type CSVHistory struct {
	dir    string
	logger zerolog.Logger
}

func NewCSVHistory(dir string, logger zerolog.Logger) *CSVHistory {
	return &CSVHistory{
		dir:    dir,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// ListRuns returns the summary files ordered oldest first. A missing
// directory yields no runs.
func (h *CSVHistory) ListRuns() ([]travel.RunFile, error) {
	return listFiles(h.dir, summaryPrefix, ".csv")
}

// LoadAll concatenates the rows of every summary in arrival order. Columns
// are located by header name; rows with an unreadable score are skipped.
func (h *CSVHistory) LoadAll() ([]travel.HistoryRow, error) {
	runs, err := h.ListRuns()
	if err != nil {
		return nil, err
	}

	var rows []travel.HistoryRow
	for _, run := range runs {
		fileRows, err := h.loadFile(run.Path)
		if err != nil {
			h.logger.Warn().Err(err).Str("file", run.Name).Msg("skipping unreadable summary")
			continue
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func (h *CSVHistory) loadFile(path string) ([]travel.HistoryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	cityIdx, okCity := col["Ciudad"]
	scoreIdx, okScore := col["IVV_Score"]
	if !okCity || !okScore {
		return nil, fmt.Errorf("missing Ciudad or IVV_Score column")
	}
	tsIdx, okTS := col["Timestamp"]
	riskIdx, okRisk := col["Nivel_Riesgo"]

	var rows []travel.HistoryRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, err
		}
		if cityIdx >= len(rec) || scoreIdx >= len(rec) {
			continue
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(rec[scoreIdx]), 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		row := travel.HistoryRow{City: rec[cityIdx], Score: score}
		if okTS && tsIdx < len(rec) {
			row.Timestamp = parseHistoryTime(rec[tsIdx])
		}
		if okRisk && riskIdx < len(rec) {
			row.Risk = travel.RiskLevel(rec[riskIdx])
		} else {
			row.Risk = travel.ClassifyRisk(score)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseHistoryTime(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range historyTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// LatestReport loads the newest structured report. It returns ErrNotFound
// when no report exists yet.
func (h *CSVHistory) LatestReport() (travel.RunFile, []Report, error) {
	files, err := listFiles(h.dir, reportPrefix, ".json")
	if err != nil {
		return travel.RunFile{}, nil, err
	}
	if len(files) == 0 {
		return travel.RunFile{}, nil, ErrNotFound
	}

	latest := files[len(files)-1]
	data, err := os.ReadFile(latest.Path)
	if err != nil {
		return latest, nil, err
	}
	var reports []Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return latest, nil, fmt.Errorf("decode %s: %w", latest.Name, err)
	}
	return latest, reports, nil
}

func listFiles(dir, prefix, ext string) ([]travel.RunFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []travel.RunFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ext {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, travel.RunFile{
			Name:    name,
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
