package geo

import "math"

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h just above 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Length returns the summed segment distance of a polyline in kilometers.
func Length(line Polyline) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
