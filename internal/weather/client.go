package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/route-weather/internal/geo"
)

// DefaultTimeout bounds a single weather lookup.
const DefaultTimeout = 10 * time.Second

// Client turns provider failures into absent observations.
type Client struct {
	provider Provider
	timeout  time.Duration
	log      *slog.Logger
}

// NewClient creates a Client. A non-positive timeout falls back to DefaultTimeout.
func NewClient(provider Provider, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{provider: provider, timeout: timeout, log: log}
}

// Observe returns the current observation at the coordinate, or nil when the
// provider failed or timed out.
func (c *Client) Observe(ctx context.Context, at geo.Coordinate) *Observation {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	obs, err := c.provider.Observe(ctx, at)
	if err != nil {
		c.log.Warn("weather lookup failed",
			"provider", c.provider.Name(),
			"lon", at.Lon,
			"lat", at.Lat,
			"error", err,
		)
		return nil
	}
	return &obs
}
