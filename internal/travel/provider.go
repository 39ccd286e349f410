package travel

import (
	"context"
	"time"
)

// WeatherProvider fetches current conditions and the daily forecast for a
// position. Any failure is returned as an error and the city is skipped.
type WeatherProvider interface {
	Name() string
	FetchWeather(ctx context.Context, city City) (WeatherSnapshot, error)
}

// RateProvider returns the current USD-relative rate table. It never fails:
// on upstream errors it substitutes its configured fallback and says so in
// RateTable.Source and RateTable.Err.
type RateProvider interface {
	Name() string
	Rates(ctx context.Context) RateTable
}

// HistorySource derives a daily rate history from the current table, ordered
// oldest to newest, with exactly days entries.
type HistorySource interface {
	History(ctx context.Context, current RateTable, days int) []RateTable
}

// TimeProvider resolves local time information for an IANA zone, falling back
// to a configured table on failure.
type TimeProvider interface {
	Name() string
	LocalTime(ctx context.Context, zone string) TimeInfo
}

// ReportWriter persists the records of one run. Failures are reported through
// empty paths and ReportFiles.Err rather than a returned error.
type ReportWriter interface {
	Write(records []RunRecord, runAt time.Time) ReportFiles
}

// Notifier is told about every scored city.
type Notifier interface {
	NotifyRecord(ctx context.Context, record RunRecord) error
}

// Recorder receives run measurements.
type Recorder interface {
	RecordCity(record RunRecord)
	RecordSkip(city City)
	RecordFallback(provider string)
	RecordRun(result RunResult)
}
