package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/route"
)

func TestMapboxGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/東京 駅.json", r.URL.Path)
		assert.Contains(t, r.RequestURI, "%20")
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "ja", r.URL.Query().Get("language"))

		_, _ = w.Write([]byte(`{"features": [{"center": [139.7671, 35.6812], "place_name": "東京駅"}]}`))
	}))
	defer srv.Close()

	p := NewMapboxProvider(srv.Client(), "tok", "").WithBaseURL(srv.URL)
	coord, err := p.Geocode(context.Background(), "東京 駅")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lon: 139.7671, Lat: 35.6812}, coord)
}

func TestMapboxGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	p := NewMapboxProvider(srv.Client(), "tok", "ja").WithBaseURL(srv.URL)
	_, err := p.Geocode(context.Background(), "zzzz")
	assert.ErrorIs(t, err, route.ErrNoMatch)

	_, err = p.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, route.ErrNoMatch)
}

func TestMapboxRequiresToken(t *testing.T) {
	p := NewMapboxProvider(http.DefaultClient, "", "ja")
	_, err := p.Geocode(context.Background(), "東京駅")
	assert.Error(t, err)
	_, err = p.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{}, route.ProfileDriving)
	assert.Error(t, err)
}

func TestMapboxRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v5/mapbox/driving/139.767100,35.681200;135.495900,34.702500", r.URL.Path)
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		assert.Equal(t, "full", r.URL.Query().Get("overview"))

		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"geometry": {"type": "LineString", "coordinates": [[139.7671, 35.6812], [137.0, 35.1], [135.4959, 34.7025]]},
				"distance": 503456.7,
				"duration": 21600.5
			}]
		}`))
	}))
	defer srv.Close()

	p := NewMapboxProvider(srv.Client(), "tok", "ja").WithBaseURL(srv.URL)
	res, err := p.Route(context.Background(),
		geo.Coordinate{Lon: 139.7671, Lat: 35.6812},
		geo.Coordinate{Lon: 135.4959, Lat: 34.7025},
		route.ProfileDriving)
	require.NoError(t, err)

	require.Len(t, res.Polyline, 3)
	assert.Equal(t, geo.Coordinate{Lon: 137.0, Lat: 35.1}, res.Polyline[1])
	assert.Equal(t, 503456.7, res.DistanceMeters)
	assert.Equal(t, 21600.5, res.DurationSeconds)
	assert.Equal(t, 503.5, res.DistanceKm())
}

func TestMapboxRouteNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	p := NewMapboxProvider(srv.Client(), "tok", "ja").WithBaseURL(srv.URL)
	_, err := p.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{Lon: 1}, route.ProfileDriving)
	assert.ErrorIs(t, err, route.ErrNoRoute)
}

func TestMapboxRouteBadGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes": [{"geometry": {"coordinates": [[1]]}, "distance": 1, "duration": 1}]}`))
	}))
	defer srv.Close()

	p := NewMapboxProvider(srv.Client(), "tok", "ja").WithBaseURL(srv.URL)
	_, err := p.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{Lon: 1}, route.ProfileDriving)
	assert.Error(t, err)
}
