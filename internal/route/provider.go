package route

import (
	"context"
	"errors"

	"github.com/i474232898/route-weather/internal/geo"
)

var (
	// ErrNoMatch is returned by a Geocoder when the place name has no result.
	ErrNoMatch = errors.New("no geocoding match")
	// ErrNoRoute is returned by a Router when the provider found no route.
	ErrNoRoute = errors.New("no route found")
)

// Geocoder resolves a free-text place name to its best-match coordinate.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) (geo.Coordinate, error)
}

// Router fetches the full-detail path between two coordinates.
type Router interface {
	Name() string
	Route(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, error)
}
