package geo

import (
	"errors"
	"math"
)

// ErrInvalidInterval is returned by Sample for a non-positive or non-finite interval.
var ErrInvalidInterval = errors.New("interval must be a positive number of kilometers")

// Sample walks line accumulating segment distances and emits a checkpoint at the
// far vertex of every segment whose accumulated distance reaches the next multiple
// of intervalKm. Checkpoints always land on existing vertices. A segment that
// crosses several multiples still yields a single checkpoint, and the threshold
// skips past every multiple it crossed.
func Sample(line Polyline, intervalKm float64) ([]Checkpoint, error) {
	if math.IsNaN(intervalKm) || math.IsInf(intervalKm, 0) || intervalKm <= 0 {
		return nil, ErrInvalidInterval
	}
	if len(line) < 2 {
		return []Checkpoint{}, nil
	}

	checkpoints := []Checkpoint{}
	accumulated := 0.0
	next := intervalKm

	for i := 1; i < len(line); i++ {
		accumulated += Distance(line[i-1], line[i])
		if accumulated < next {
			continue
		}

		checkpoints = append(checkpoints, Checkpoint{
			Coordinate: line[i],
			Index:      len(checkpoints) + 1,
		})

		next = (math.Floor(accumulated/intervalKm) + 1) * intervalKm
		if next <= accumulated {
			// intervalKm is below the float resolution of accumulated.
			next = math.Nextafter(accumulated, math.Inf(1))
		}
	}

	return checkpoints, nil
}
