package route

import (
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/route-weather/internal/geo"
)

// Profile selects the travel mode passed to the routing provider.
type Profile string

const ProfileDriving Profile = "driving"

// ParseProfile accepts "" (driving) and "driving".
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProfileDriving:
		return ProfileDriving, nil
	default:
		return "", fmt.Errorf("unsupported route profile %q", s)
	}
}

// Result is one route returned by a routing provider.
type Result struct {
	Polyline        geo.Polyline `json:"polyline"`
	DistanceMeters  float64      `json:"distanceMeters"`
	DurationSeconds float64      `json:"durationSeconds"`
}

// DistanceKm returns the route distance in kilometers rounded to 0.1 km.
func (r Result) DistanceKm() float64 {
	return math.Round(r.DistanceMeters/100) / 10
}
