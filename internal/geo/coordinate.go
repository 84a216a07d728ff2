package geo

import "fmt"

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// FromLonLat builds a Coordinate from a GeoJSON position ([lon, lat, ...]).
func FromLonLat(pos []float64) (Coordinate, error) {
	if len(pos) < 2 {
		return Coordinate{}, fmt.Errorf("geojson position needs 2 values, got %d", len(pos))
	}
	return Coordinate{Lon: pos[0], Lat: pos[1]}, nil
}

// String renders the coordinate the way routing providers expect it in paths: "lon,lat".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

// Polyline is an ordered path in traversal order.
type Polyline []Coordinate

// Checkpoint is a polyline vertex picked by Sample. Index starts at 1.
type Checkpoint struct {
	Coordinate Coordinate `json:"coordinate"`
	Index      int        `json:"index"`
}
