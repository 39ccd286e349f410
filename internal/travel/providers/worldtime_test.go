package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/travel-viability/internal/travel"
)

func TestReferenceDifference(t *testing.T) {
	cases := map[string]string{
		"+09:00": "+14 horas",
		"-04:00": "+1 horas",
		"-05:00": "+0 horas",
		"+05:30": "+10 horas",
		"-10:00": "-5 horas",
		"bogus":  "N/A",
		"":       "N/A",
	}
	for offset, want := range cases {
		assert.Equal(t, want, ReferenceDifference(offset, DefaultReferenceUTCOffset), offset)
	}
}

func TestParseUTCOffset(t *testing.T) {
	secs, err := ParseUTCOffset("+05:30")
	require.NoError(t, err)
	assert.Equal(t, 5*3600+30*60, secs)

	secs, err = ParseUTCOffset("-03:00")
	require.NoError(t, err)
	assert.Equal(t, -3*3600, secs)

	_, err = ParseUTCOffset("03:00")
	assert.Error(t, err)
}

func TestWorldTimeLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Asia/Tokyo", r.URL.Path)
		_, _ = w.Write([]byte(`{"datetime":"2024-01-01T21:00:00.000000+09:00","timezone":"Asia/Tokyo","utc_offset":"+09:00"}`))
	}))
	defer srv.Close()

	p := NewWorldTimeProvider(testHTTPConfig(srv.Client()), srv.URL, DefaultReferenceUTCOffset, DefaultTimezoneFallback())
	info := p.LocalTime(context.Background(), "Asia/Tokyo")

	assert.Equal(t, travel.SourceLive, info.Source)
	assert.Equal(t, "+09:00", info.UTCOffset)
	assert.Equal(t, "+14 horas", info.ReferenceDiff)
	assert.Equal(t, "2024-01-01T21:00:00.000000+09:00", info.LocalTime)
}

func TestWorldTimeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testHTTPConfig(srv.Client())
	cfg.Breaker.MaxConsecutiveFailures = 10
	p := NewWorldTimeProvider(cfg, srv.URL, DefaultReferenceUTCOffset, DefaultTimezoneFallback())
	p.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	info := p.LocalTime(context.Background(), "Asia/Tokyo")
	assert.Equal(t, travel.SourceFallback, info.Source)
	assert.ErrorIs(t, info.Err, ErrUnexpected)
	assert.Equal(t, "+09:00", info.UTCOffset)
	assert.Equal(t, "+14 horas", info.ReferenceDiff)
	assert.Equal(t, "2024-01-01T21:00:00", info.LocalTime)

	other := p.LocalTime(context.Background(), "Europe/Paris")
	assert.Equal(t, "+00:00", other.UTCOffset)
	assert.Equal(t, "+5 horas", other.ReferenceDiff)
}

func TestCityGeocoderResolve(t *testing.T) {
	lookups := 0
	g := NewCityGeocoderWith(func(city, country string) (float64, float64, error) {
		lookups++
		if city == "Lima" {
			return -12.0464, -77.0428, nil
		}
		return 0, 0, errors.New("not found")
	}, zerolog.Nop())

	in := []travel.City{
		{Name: "Tokio", Latitude: 35.6762, Longitude: 139.6503},
		{Name: "Lima", Country: "PE"},
		{Name: "Atlantis"},
	}
	out := g.Resolve(in)

	assert.Equal(t, 2, lookups)
	assert.Equal(t, -12.0464, out[1].Latitude)
	assert.False(t, out[2].HasCoordinates())
	assert.False(t, in[1].HasCoordinates(), "input slice is not modified")
}

func TestCityGeocoderWithoutKeyIsNoop(t *testing.T) {
	in := []travel.City{{Name: "Lima"}}
	out := NewCityGeocoder("", zerolog.Nop()).Resolve(in)
	assert.Equal(t, in, out)
}
