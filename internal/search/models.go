package search

import (
	"github.com/i474232898/route-weather/internal/geo"
	"github.com/i474232898/route-weather/internal/route"
	"github.com/i474232898/route-weather/internal/weather"
)

// Request is one route search issued by a user.
type Request struct {
	UserID     int64
	StartPlace string
	EndPlace   string
	IntervalKm float64
	Profile    route.Profile
}

// Role tells where on the route an annotated point sits.
type Role string

const (
	RoleStart      Role = "start"
	RoleCheckpoint Role = "checkpoint"
	RoleEnd        Role = "end"
)

// AnnotatedPoint is a route point with its weather. Weather is nil when the
// lookup failed; Index is 0 for start and end.
type AnnotatedPoint struct {
	Role       Role                 `json:"role"`
	Index      int                  `json:"index,omitempty"`
	Coordinate geo.Coordinate       `json:"coordinate"`
	Weather    *weather.Observation `json:"weather"`
}

type Summary struct {
	DistanceKm      float64 `json:"distanceKm"`
	CheckpointCount int     `json:"checkpointCount"`
	Message         string  `json:"message"`
}

// Result is a successful search: the route and start, checkpoints and end in
// traversal order.
type Result struct {
	Route   route.Result     `json:"route"`
	Points  []AnnotatedPoint `json:"points"`
	Summary Summary          `json:"summary"`
}
