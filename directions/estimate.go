package directions

import (
	"context"
	"fmt"
	"math"

	"itinera/geo"
	"itinera/models"
	"itinera/polyline"
)

// averageSpeedKmh turns great-circle distance into a duration estimate.
// Transit includes stops and driving includes traffic. Unknown modes drive.
func averageSpeedKmh(mode models.TravelMode) float64 {
	switch mode {
	case models.ModeWalking:
		return 5
	case models.ModeBicycling:
		return 15
	case models.ModeTransit:
		return 20
	default:
		return 40
	}
}

// Estimator answers route requests without any network call. Its results
// are straight lines between stops and always carry Estimated = true.
type Estimator struct{}

func (Estimator) ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error) {
	mode, err := req.normalize()
	if err != nil {
		return nil, err
	}

	stops := req.Stops()
	points := make([]models.Coordinates, len(stops))
	for i, s := range stops {
		points[i] = s.Coordinates
	}

	result := &models.RouteResult{
		Stops:     stops,
		Mode:      mode,
		Polyline:  polyline.Encode(points),
		Path:      points,
		Steps:     make([]models.RouteStep, 0, len(stops)-1),
		Estimated: true,
	}

	for i := 1; i < len(stops); i++ {
		legKm := geo.DistanceKm(points[i-1], points[i])
		legSecs := EstimateDuration(legKm, mode)
		result.DistanceKm += legKm
		result.DurationSeconds += legSecs
		result.Steps = append(result.Steps, models.RouteStep{
			Instruction:     fmt.Sprintf("Head to %s (about %.1f km, straight line)", stopLabel(stops[i], i), legKm),
			DistanceKm:      legKm,
			DurationSeconds: legSecs,
		})
	}

	return result, nil
}

// EstimateDuration is the duration, in seconds, of covering distanceKm at
// the mode's average speed.
func EstimateDuration(distanceKm float64, mode models.TravelMode) int64 {
	return int64(math.Round(distanceKm / averageSpeedKmh(mode) * 3600))
}

func stopLabel(s models.RouteStop, i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("stop %d", i+1)
}
