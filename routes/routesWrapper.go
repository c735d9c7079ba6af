package routes

import (
	"github.com/julienschmidt/httprouter"

	"itinera/itinerary"
	"itinera/livefeed"
	"itinera/ratelim"
)

// Deps carries the components the HTTP surface is built from.
type Deps struct {
	Scheduler *itinerary.Scheduler
	Places    itinerary.PlaceResolver
	Hub       *livefeed.Hub
}

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, deps Deps) {
	h := itinerary.NewHandler(deps.Scheduler)
	AddItineraryRoutes(router, h, rateLimiter)
	AddItemRoutes(router, h)
	AddDayRoutes(router, h, rateLimiter)
	if deps.Places != nil {
		AddPlaceRoutes(router, deps.Places, rateLimiter)
	}
	AddFeedRoutes(router, deps.Hub, deps.Scheduler)
}
