// Package polyline converts between encoded polylines, as returned by
// directions services, and coordinate sequences.
package polyline

import (
	"errors"
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"

	"itinera/models"
)

// ErrMalformed is returned when the encoded string is not a valid polyline.
var ErrMalformed = errors.New("malformed polyline")

// Decode decodes a Google polyline string (precision 1e5) to a point
// sequence. Empty input decodes to an empty sequence.
func Decode(encoded string) ([]models.Coordinates, error) {
	if encoded == "" {
		return []models.Coordinates{}, nil
	}

	coords, rest, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}

	points := make([]models.Coordinates, len(coords))
	for i, c := range coords {
		points[i] = models.Coordinates{Latitude: c[0], Longitude: c[1]}
		if c[0] < -90 || c[0] > 90 || c[1] < -180 || c[1] > 180 {
			return nil, fmt.Errorf("%w: point %d out of range", ErrMalformed, i)
		}
	}
	return points, nil
}

// Encode is the inverse of Decode.
func Encode(points []models.Coordinates) string {
	if len(points) == 0 {
		return ""
	}
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(gopolyline.EncodeCoords(coords))
}
