package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/route"
)

func TestGoogleGeocode(t *testing.T) {
	g := NewGoogleGeocoder("key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		assert.Equal(t, "大阪駅", a.City)
		assert.Equal(t, "key", geocoder.ApiKey)
		return geocoder.Location{Latitude: 34.7025, Longitude: 135.4959}, nil
	}

	coord, err := g.Geocode(context.Background(), " 大阪駅 ")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lon: 135.4959, Lat: 34.7025}, coord)
}

func TestGoogleGeocodeErrors(t *testing.T) {
	g := NewGoogleGeocoder("key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}
	_, err := g.Geocode(context.Background(), "nowhere")
	assert.Error(t, err)

	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, nil
	}
	_, err = g.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, route.ErrNoMatch)

	_, err = NewGoogleGeocoder("").Geocode(context.Background(), "x")
	assert.Error(t, err)
}

func TestGoogleGeocodeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := NewGoogleGeocoder("key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Geocode(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
