// Package geo holds the great-circle math shared by route estimation and
// the stop-ordering heuristic.
package geo

import (
	"math"

	"itinera/models"
)

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DistanceKm calculates great-circle distance between two points using the
// Haversine formula.
func DistanceKm(a, b models.Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := DegToRad(a.Latitude)
	lat2 := DegToRad(b.Latitude)
	dlat := lat2 - lat1
	dlon := DegToRad(b.Longitude - a.Longitude)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// PathKm sums the legs of an ordered point sequence.
func PathKm(points []models.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}
