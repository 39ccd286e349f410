package providers

import (
	"fmt"

	"github.com/kelvins/geocoder"
	"github.com/rs/zerolog"

	"github.com/i474232898/travel-viability/internal/travel"
)

// GeocodeFunc resolves a city into coordinates.
type GeocodeFunc func(city, country string) (lat, lon float64, err error)

// CityGeocoder fills in coordinates for configured cities that omit them.
type CityGeocoder struct {
	lookup GeocodeFunc
	logger zerolog.Logger
}

// NewCityGeocoder uses the Google geocoding API through kelvins/geocoder.
// An empty apiKey leaves cities untouched.
func NewCityGeocoder(apiKey string, logger zerolog.Logger) *CityGeocoder {
	if apiKey == "" {
		return &CityGeocoder{logger: logger}
	}
	geocoder.ApiKey = apiKey
	return &CityGeocoder{lookup: googleGeocode, logger: logger}
}

// NewCityGeocoderWith uses a custom lookup.
func NewCityGeocoderWith(lookup GeocodeFunc, logger zerolog.Logger) *CityGeocoder {
	return &CityGeocoder{lookup: lookup, logger: logger}
}

func googleGeocode(city, country string) (float64, float64, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

// Resolve returns a copy of cities with missing coordinates looked up.
// Cities that cannot be resolved are kept as they are; the weather provider
// will then skip them during a run.
func (g *CityGeocoder) Resolve(cities []travel.City) []travel.City {
	out := make([]travel.City, len(cities))
	copy(out, cities)
	if g.lookup == nil {
		return out
	}

	for i := range out {
		if out[i].HasCoordinates() {
			continue
		}
		lat, lon, err := g.lookup(out[i].Name, out[i].Country)
		if err == nil && lat == 0 && lon == 0 {
			err = fmt.Errorf("no result")
		}
		if err != nil {
			g.logger.Warn().Err(err).Str("city", out[i].Name).Msg("geocoding failed")
			continue
		}
		out[i].Latitude = lat
		out[i].Longitude = lon
		g.logger.Info().Str("city", out[i].Name).Float64("lat", lat).Float64("lon", lon).Msg("geocoded city")
	}
	return out
}
