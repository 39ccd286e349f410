package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/travel-viability/internal/store"
	"github.com/i474232898/travel-viability/internal/travel"
)

var validate = validator.New()

// RecordStore serves recent scored records.
type RecordStore interface {
	GetLatest(city string) (travel.RunRecord, error)
	GetRange(city string, from, to time.Time) ([]travel.RunRecord, error)
	Cities() []string
}

// ReportSource serves the newest structured report on disk.
type ReportSource interface {
	LatestReport() (travel.RunFile, []store.Report, error)
}

// Analyzer runs forecast and anomaly detection over the run history.
type Analyzer interface {
	Forecast(ctx context.Context) (map[string]float64, error)
	Anomalies(ctx context.Context) ([]travel.HistoryRow, error)
}

// Deps are the collaborators behind the API. Nil members disable their routes.
type Deps struct {
	Records  RecordStore
	Reports  ReportSource
	Analysis Analyzer
	Metrics  http.Handler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v1 := app.Group("/api/v1")

	if deps.Reports != nil {
		v1.Get("/report/latest", func(c *fiber.Ctx) error {
			file, reports, err := deps.Reports.LatestReport()
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "no report has been generated yet")
				}
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read latest report")
			}

			if city := strings.TrimSpace(c.Query("city")); city != "" {
				filtered := make([]store.Report, 0, 1)
				for _, r := range reports {
					if strings.EqualFold(r.City, city) {
						filtered = append(filtered, r)
					}
				}
				if len(filtered) == 0 {
					return fiber.NewError(fiber.StatusNotFound, "city not present in latest report")
				}
				reports = filtered
			}

			return c.JSON(fiber.Map{
				"file":     file.Name,
				"ciudades": reports,
			})
		})
	}

	if deps.Records != nil {
		v1.Get("/ivv/cities", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"cities": deps.Records.Cities()})
		})

		v1.Get("/ivv/latest", func(c *fiber.Ctx) error {
			q, err := parseCityQuery(c)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			record, err := deps.Records.GetLatest(q.City)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "no ivv data for requested city")
				}
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch ivv data")
			}
			return c.JSON(record)
		})

		v1.Get("/ivv/history", func(c *fiber.Ctx) error {
			var req historyQuery
			if err := req.bind(c); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			records, err := deps.Records.GetRange(req.City.City, req.From, req.To)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "no ivv history for requested range")
				}
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch ivv history")
			}

			points := make([]historyPoint, 0, len(records))
			for _, r := range records {
				points = append(points, historyPoint{
					Timestamp: r.Timestamp,
					Score:     r.IVV.Score,
					Risk:      r.IVV.Risk,
					Alerts:    len(r.Alerts),
				})
			}

			return c.JSON(fiber.Map{
				"city":   req.City.City,
				"from":   req.From,
				"to":     req.To,
				"points": points,
			})
		})
	}

	if deps.Analysis != nil {
		v1.Get("/analysis/forecast", func(c *fiber.Ctx) error {
			forecast, err := deps.Analysis.Forecast(c.UserContext())
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to compute forecast")
			}
			return c.JSON(fiber.Map{"forecast": forecast})
		})

		v1.Get("/analysis/anomalies", func(c *fiber.Ctx) error {
			rows, err := deps.Analysis.Anomalies(c.UserContext())
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to detect anomalies")
			}
			return c.JSON(fiber.Map{"anomalies": rows})
		})
	}
}

type historyPoint struct {
	Timestamp time.Time        `json:"timestamp"`
	Score     float64          `json:"ivv_score"`
	Risk      travel.RiskLevel `json:"nivel_riesgo"`
	Alerts    int              `json:"alertas"`
}

// cityQuery holds the query parameter identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City cityQuery
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	h.City = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
