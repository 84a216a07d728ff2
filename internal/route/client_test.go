package route

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-weather/internal/geo"
)

type mockGeocoder struct {
	name      string
	calls     int
	geocodeFn func(ctx context.Context, place string) (geo.Coordinate, error)
}

func (m *mockGeocoder) Name() string { return m.name }

func (m *mockGeocoder) Geocode(ctx context.Context, place string) (geo.Coordinate, error) {
	m.calls++
	return m.geocodeFn(ctx, place)
}

type mockRouter struct {
	routeFn func(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, error)
}

func (m *mockRouter) Name() string { return "mock" }

func (m *mockRouter) Route(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, error) {
	return m.routeFn(ctx, start, end, profile)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var tokyo = geo.Coordinate{Lon: 139.7671, Lat: 35.6812}

func TestGeocodeFirstMatchWins(t *testing.T) {
	first := &mockGeocoder{name: "first", geocodeFn: func(ctx context.Context, place string) (geo.Coordinate, error) {
		return tokyo, nil
	}}
	second := &mockGeocoder{name: "second", geocodeFn: func(ctx context.Context, place string) (geo.Coordinate, error) {
		return geo.Coordinate{}, nil
	}}

	c := NewClient([]Geocoder{first, second}, nil, time.Second, discardLogger())
	coord, ok := c.Geocode(context.Background(), "東京駅")
	require.True(t, ok)
	assert.Equal(t, tokyo, coord)
	assert.Equal(t, 0, second.calls)
}

func TestGeocodeFallsThroughOnFailure(t *testing.T) {
	failing := &mockGeocoder{name: "failing", geocodeFn: func(ctx context.Context, place string) (geo.Coordinate, error) {
		return geo.Coordinate{}, errors.New("connection reset")
	}}
	backup := &mockGeocoder{name: "backup", geocodeFn: func(ctx context.Context, place string) (geo.Coordinate, error) {
		return tokyo, nil
	}}

	c := NewClient([]Geocoder{failing, backup}, nil, time.Second, discardLogger())
	coord, ok := c.Geocode(context.Background(), "東京駅")
	require.True(t, ok)
	assert.Equal(t, tokyo, coord)
	assert.Equal(t, 1, failing.calls)
}

func TestGeocodeAbsent(t *testing.T) {
	none := &mockGeocoder{name: "none", geocodeFn: func(ctx context.Context, place string) (geo.Coordinate, error) {
		return geo.Coordinate{}, ErrNoMatch
	}}

	c := NewClient([]Geocoder{none}, nil, time.Second, discardLogger())
	_, ok := c.Geocode(context.Background(), "nowhere")
	assert.False(t, ok)
	assert.Equal(t, 1, none.calls, "a geocoder is asked exactly once")

	_, ok = NewClient(nil, nil, time.Second, discardLogger()).Geocode(context.Background(), "x")
	assert.False(t, ok)
}

func TestFetchRoute(t *testing.T) {
	want := Result{
		Polyline:        geo.Polyline{tokyo, {Lon: 135.4959, Lat: 34.7025}},
		DistanceMeters:  503_123,
		DurationSeconds: 21_000,
	}
	router := &mockRouter{routeFn: func(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, error) {
		assert.Equal(t, ProfileDriving, profile)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return want, nil
	}}

	c := NewClient(nil, router, time.Second, discardLogger())
	got, ok := c.FetchRoute(context.Background(), tokyo, want.Polyline[1], "")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 503.1, got.DistanceKm())
}

func TestFetchRouteAbsent(t *testing.T) {
	for _, err := range []error{ErrNoRoute, errors.New("timeout"), nil} {
		err := err
		router := &mockRouter{routeFn: func(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, error) {
			return Result{}, err
		}}

		_, ok := NewClient(nil, router, time.Second, discardLogger()).FetchRoute(context.Background(), tokyo, tokyo, ProfileDriving)
		assert.False(t, ok, "router error %v", err)
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileDriving, p)

	p, err = ParseProfile(" Driving ")
	require.NoError(t, err)
	assert.Equal(t, ProfileDriving, p)

	_, err = ParseProfile("walking")
	assert.Error(t, err)
}
