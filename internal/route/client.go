package route

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/i474232898/route-weather/internal/geo"
)

// DefaultTimeout bounds a single geocoding or routing call.
const DefaultTimeout = 10 * time.Second

// Client is the route provider boundary: provider errors are logged here and
// reported to callers only as absence.
type Client struct {
	geocoders []Geocoder
	router    Router
	timeout   time.Duration
	log       *slog.Logger
}

// NewClient creates a Client. Geocoders are consulted in order; the next one
// is only asked when the previous one returned no coordinate.
func NewClient(geocoders []Geocoder, router Router, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		geocoders: geocoders,
		router:    router,
		timeout:   timeout,
		log:       log,
	}
}

// Geocode resolves place to a coordinate. ok is false when no geocoder found it.
func (c *Client) Geocode(ctx context.Context, place string) (geo.Coordinate, bool) {
	for _, g := range c.geocoders {
		coord, err := c.geocodeOnce(ctx, g, place)
		if err == nil {
			return coord, true
		}

		if errors.Is(err, ErrNoMatch) {
			c.log.Info("place not found", "geocoder", g.Name(), "place", place)
		} else {
			c.log.Warn("geocoding failed", "geocoder", g.Name(), "place", place, "error", err)
		}
	}
	return geo.Coordinate{}, false
}

func (c *Client) geocodeOnce(ctx context.Context, g Geocoder, place string) (geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return g.Geocode(ctx, place)
}

// FetchRoute returns the route between start and end. ok is false when the
// provider found no route or failed.
func (c *Client) FetchRoute(ctx context.Context, start, end geo.Coordinate, profile Profile) (Result, bool) {
	if c.router == nil {
		c.log.Error("no router configured")
		return Result{}, false
	}
	if profile == "" {
		profile = ProfileDriving
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.router.Route(ctx, start, end, profile)
	if err != nil {
		if errors.Is(err, ErrNoRoute) {
			c.log.Info("no route between coordinates", "router", c.router.Name(), "start", start.String(), "end", end.String())
		} else {
			c.log.Warn("route fetch failed", "router", c.router.Name(), "error", err)
		}
		return Result{}, false
	}
	if len(res.Polyline) == 0 {
		c.log.Warn("router returned an empty polyline", "router", c.router.Name())
		return Result{}, false
	}
	return res, true
}
