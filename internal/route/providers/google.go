package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/route"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements route.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, place string) (geo.Coordinate, error) {
	if g.apiKey == "" {
		return geo.Coordinate{}, fmt.Errorf("google geocoding api key is not configured")
	}
	place = strings.TrimSpace(place)
	if place == "" {
		return geo.Coordinate{}, route.ErrNoMatch
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	go func() {
		googleKeyMu.Lock()
		defer googleKeyMu.Unlock()

		geocoder.ApiKey = g.apiKey
		loc, err := g.lookup(geocoder.Address{City: place})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return geo.Coordinate{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return geo.Coordinate{}, fmt.Errorf("google geocoding: %w", r.err)
		}
		if r.loc.Latitude == 0 && r.loc.Longitude == 0 {
			return geo.Coordinate{}, route.ErrNoMatch
		}
		return geo.Coordinate{Lon: r.loc.Longitude, Lat: r.loc.Latitude}, nil
	}
}
