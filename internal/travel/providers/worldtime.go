package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-viability/internal/travel"
)

// DefaultWorldTimeURL is the base of the per-zone endpoint.
const DefaultWorldTimeURL = "http://worldtimeapi.org/api/timezone"

// DefaultReferenceUTCOffset is the zone all differences are measured from (UTC-5).
const DefaultReferenceUTCOffset = -5

// ZoneFallback is the substitute offset data for one zone.
type ZoneFallback struct {
	UTCOffset  string `yaml:"utc_offset" json:"utc_offset"`
	Difference string `yaml:"difference" json:"difference"`
}

// TimezoneFallback is consulted when the time API fails. Zones not listed get Default.
type TimezoneFallback struct {
	Zones   map[string]ZoneFallback `yaml:"zones" json:"zones"`
	Default ZoneFallback            `yaml:"default" json:"default"`
}

// DefaultTimezoneFallback covers the default city list.
func DefaultTimezoneFallback() TimezoneFallback {
	return TimezoneFallback{
		Zones: map[string]ZoneFallback{
			"America/New_York":  {UTCOffset: "-04:00", Difference: "-1 horas"},
			"Europe/London":     {UTCOffset: "+01:00", Difference: "+6 horas"},
			"Asia/Tokyo":        {UTCOffset: "+09:00", Difference: "+14 horas"},
			"America/Sao_Paulo": {UTCOffset: "-03:00", Difference: "+2 horas"},
			"Australia/Sydney":  {UTCOffset: "+11:00", Difference: "+16 horas"},
		},
		Default: ZoneFallback{UTCOffset: "+00:00", Difference: "+5 horas"},
	}
}

// Lookup returns the fallback entry for zone.
func (f TimezoneFallback) Lookup(zone string) ZoneFallback {
	if z, ok := f.Zones[zone]; ok {
		return z
	}
	return f.Default
}

// WorldTimeProvider implements travel.TimeProvider for worldtimeapi.org.
type WorldTimeProvider struct {
	name            string
	baseURL         string
	httpCfg         HTTPClientConfig
	circuit         *gobreaker.CircuitBreaker
	referenceOffset int
	fallback        TimezoneFallback
	now             func() time.Time
}

var _ travel.TimeProvider = (*WorldTimeProvider)(nil)

func NewWorldTimeProvider(cfg HTTPClientConfig, baseURL string, referenceOffset int, fallback TimezoneFallback) *WorldTimeProvider {
	if baseURL == "" {
		baseURL = DefaultWorldTimeURL
	}
	return &WorldTimeProvider{
		name:            "worldtimeapi",
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpCfg:         cfg,
		circuit:         newCircuitBreaker("worldtimeapi", cfg.Breaker),
		referenceOffset: referenceOffset,
		fallback:        fallback,
		now:             time.Now,
	}
}

func (p *WorldTimeProvider) Name() string {
	return p.name
}

type worldTimePayload struct {
	Datetime  string `json:"datetime" validate:"required"`
	Timezone  string `json:"timezone" validate:"required"`
	UTCOffset string `json:"utc_offset" validate:"required"`
}

// LocalTime never fails; see travel.TimeProvider.
func (p *WorldTimeProvider) LocalTime(ctx context.Context, zone string) travel.TimeInfo {
	info, err := p.fetch(ctx, zone)
	if err != nil {
		return p.fallbackInfo(zone, err)
	}
	return info
}

func (p *WorldTimeProvider) fetch(ctx context.Context, zone string) (travel.TimeInfo, error) {
	if zone == "" {
		return travel.TimeInfo{}, fmt.Errorf("empty time zone")
	}

	// IANA names keep their slash; each segment is escaped on its own.
	segments := strings.Split(zone, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.baseURL+"/"+strings.Join(segments, "/"), nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return travel.TimeInfo{}, err
	}
	defer resp.Body.Close()

	var payload worldTimePayload
	if err := decodePayload(resp.Body, &payload); err != nil {
		return travel.TimeInfo{}, err
	}

	return travel.TimeInfo{
		LocalTime:     payload.Datetime,
		Zone:          payload.Timezone,
		UTCOffset:     payload.UTCOffset,
		ReferenceDiff: ReferenceDifference(payload.UTCOffset, p.referenceOffset),
		Source:        travel.SourceLive,
	}, nil
}

func (p *WorldTimeProvider) fallbackInfo(zone string, cause error) travel.TimeInfo {
	fb := p.fallback.Lookup(zone)

	local := ""
	if secs, err := ParseUTCOffset(fb.UTCOffset); err == nil {
		local = p.now().In(time.FixedZone(fb.UTCOffset, secs)).Format("2006-01-02T15:04:05")
	}

	return travel.TimeInfo{
		LocalTime:     local,
		Zone:          zone,
		UTCOffset:     fb.UTCOffset,
		ReferenceDiff: fb.Difference,
		Source:        travel.SourceFallback,
		Err:           fmt.Errorf("%s: %w", p.name, cause),
	}
}

// ReferenceDifference labels the whole-hour gap between an offset such as
// "+09:00" and the reference offset, e.g. "+14 horas". Only the hour part of
// the offset is used. Unparseable offsets yield "N/A".
func ReferenceDifference(utcOffset string, reference int) string {
	hours, err := strconv.Atoi(strings.SplitN(utcOffset, ":", 2)[0])
	if err != nil {
		return "N/A"
	}
	return fmt.Sprintf("%+d horas", hours-reference)
}

// ParseUTCOffset converts "+05:30" style offsets into seconds east of UTC.
func ParseUTCOffset(offset string) (int, error) {
	if len(offset) < 3 || (offset[0] != '+' && offset[0] != '-') {
		return 0, fmt.Errorf("invalid utc offset %q", offset)
	}
	sign := 1
	if offset[0] == '-' {
		sign = -1
	}

	parts := strings.SplitN(offset[1:], ":", 2)
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid utc offset %q: %w", offset, err)
	}
	minutes := 0
	if len(parts) == 2 {
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid utc offset %q: %w", offset, err)
		}
	}
	return sign * (hours*3600 + minutes*60), nil
}
