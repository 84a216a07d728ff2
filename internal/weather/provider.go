package weather

import (
	"context"

	"github.com/i474232898/route-weather/internal/geo"
)

// Provider abstracts a current-conditions weather source (e.g. OpenWeatherMap).
type Provider interface {
	Name() string
	Observe(ctx context.Context, at geo.Coordinate) (Observation, error)
}
