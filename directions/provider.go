// Package directions computes routes between located stops, either through
// an external directions provider or, as a clearly flagged fallback, from
// great-circle estimates.
package directions

import (
	"context"

	"itinera/models"
)

// Provider computes a route through ordered stops.
type Provider interface {
	ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error)
}

// Request asks for a route from Origin to Destination through Waypoints in
// the given order. An empty Mode means driving.
type Request struct {
	Origin      *models.RouteStop
	Destination *models.RouteStop
	Waypoints   []models.RouteStop
	Mode        models.TravelMode
}

// NewRequest builds a request from an ordered stop list: the first stop is
// the origin, the last the destination and the rest waypoints.
func NewRequest(stops []models.RouteStop, mode models.TravelMode) Request {
	req := Request{Mode: mode}
	if len(stops) > 0 {
		origin := stops[0]
		req.Origin = &origin
	}
	if len(stops) > 1 {
		dest := stops[len(stops)-1]
		req.Destination = &dest
		req.Waypoints = append([]models.RouteStop(nil), stops[1:len(stops)-1]...)
	}
	return req
}

// Stops returns origin, waypoints and destination in visiting order.
func (r Request) Stops() []models.RouteStop {
	stops := make([]models.RouteStop, 0, len(r.Waypoints)+2)
	if r.Origin != nil {
		stops = append(stops, *r.Origin)
	}
	stops = append(stops, r.Waypoints...)
	if r.Destination != nil {
		stops = append(stops, *r.Destination)
	}
	return stops
}

// normalize validates the request and resolves the travel mode.
func (r Request) normalize() (models.TravelMode, error) {
	if r.Origin == nil {
		return "", &InvalidInputError{Field: "origin", Reason: "missing"}
	}
	if r.Destination == nil {
		return "", &InvalidInputError{Field: "destination", Reason: "missing"}
	}
	if !r.Origin.Coordinates.Valid() {
		return "", &InvalidInputError{Field: "origin", Reason: "invalid coordinates"}
	}
	if !r.Destination.Coordinates.Valid() {
		return "", &InvalidInputError{Field: "destination", Reason: "invalid coordinates"}
	}
	for _, w := range r.Waypoints {
		if !w.Coordinates.Valid() {
			return "", &InvalidInputError{Field: "waypoints", Reason: "invalid coordinates"}
		}
	}
	mode, ok := models.ParseTravelMode(string(r.Mode))
	if !ok {
		return "", &InvalidInputError{Field: "mode", Reason: "unsupported travel mode " + string(r.Mode)}
	}
	return mode, nil
}
