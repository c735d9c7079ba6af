// Package routeopt orders a day's stops with a greedy nearest-neighbour tour.
//
// The heuristic is O(n²) and not optimal; it is meant for the handful of
// stops a single day holds (roughly twenty at most). The first stop is
// fixed as the start and equal distances resolve to the earliest stop in
// input order, so the result is deterministic.
package routeopt

import (
	"errors"

	"itinera/geo"
	"itinera/models"
)

// ErrInsufficientStops is returned when fewer than two stops are supplied.
var ErrInsufficientStops = errors.New("at least 2 stops are required to optimize a route")

// Order returns the visiting order of points as indices into points.
func Order(points []models.Coordinates) ([]int, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientStops
	}

	order := make([]int, 0, len(points))
	visited := make([]bool, len(points))

	order = append(order, 0)
	visited[0] = true
	current := 0

	for len(order) < len(points) {
		next := -1
		best := 0.0
		for j, p := range points {
			if visited[j] {
				continue
			}
			d := geo.DistanceKm(points[current], p)
			// Strict comparison keeps the first of equally distant stops.
			if next == -1 || d < best {
				next = j
				best = d
			}
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}

	return order, nil
}

// OptimizeOrder returns stops in visiting order; see Order.
func OptimizeOrder(stops []models.RouteStop) ([]models.RouteStop, error) {
	points := make([]models.Coordinates, len(stops))
	for i, s := range stops {
		points[i] = s.Coordinates
	}

	order, err := Order(points)
	if err != nil {
		return nil, err
	}

	out := make([]models.RouteStop, len(order))
	for i, idx := range order {
		out[i] = stops[idx]
	}
	return out, nil
}
