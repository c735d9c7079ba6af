package routes

import (
	"github.com/julienschmidt/httprouter"

	"itinera/itinerary"
	"itinera/livefeed"
	"itinera/middleware"
	"itinera/places"
	"itinera/ratelim"
)

func AddItineraryRoutes(router *httprouter.Router, h *itinerary.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/itineraries", middleware.Authenticate(h.GetItineraries))
	router.POST("/api/itineraries", rateLimiter.Limit(middleware.Authenticate(h.CreateItinerary)))
	router.GET("/api/itineraries/search", middleware.OptionalAuth(h.SearchItineraries))
	router.GET("/api/itineraries/all/:id", middleware.OptionalAuth(h.GetItinerary))
	router.PUT("/api/itineraries/:id", middleware.Authenticate(h.UpdateItinerary))
	router.DELETE("/api/itineraries/:id", middleware.Authenticate(h.DeleteItinerary))
	router.POST("/api/itineraries/:id/fork", middleware.Authenticate(h.ForkItinerary))
	router.PUT("/api/itineraries/:id/publish", middleware.Authenticate(h.PublishItinerary))

	router.POST("/api/itineraries/:id/collaborators", middleware.Authenticate(h.AddCollaborator))
	router.DELETE("/api/itineraries/:id/collaborators/:userid", middleware.Authenticate(h.RemoveCollaborator))
}

func AddItemRoutes(router *httprouter.Router, h *itinerary.Handler) {
	router.POST("/api/itineraries/:id/items", middleware.Authenticate(h.AddItem))
	router.PUT("/api/itineraries/:id/items/:itemid", middleware.Authenticate(h.UpdateItem))
	router.POST("/api/itineraries/:id/items/:itemid/move", middleware.Authenticate(h.MoveItem))
	router.DELETE("/api/itineraries/:id/items/:itemid", middleware.Authenticate(h.DeleteItem))
}

func AddDayRoutes(router *httprouter.Router, h *itinerary.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/itineraries/all/:id/days/:day", middleware.OptionalAuth(h.GetDayView))
	router.GET("/api/itineraries/all/:id/days/:day/sheet", rateLimiter.Limit(middleware.OptionalAuth(h.GetDaySheet)))
	router.POST("/api/itineraries/:id/days/:day/route", rateLimiter.Limit(middleware.OptionalAuth(h.ComputeDayRoute)))
	router.POST("/api/routes/optimize", rateLimiter.Limit(middleware.OptionalAuth(h.OptimizeRoute)))
}

func AddPlaceRoutes(router *httprouter.Router, resolver itinerary.PlaceResolver, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/places/:placeid", rateLimiter.Limit(places.GetPlace(resolver)))
}

func AddFeedRoutes(router *httprouter.Router, hub *livefeed.Hub, reader livefeed.Reader) {
	router.GET("/ws/itineraries/:id", middleware.OptionalAuth(livefeed.WebSocketHandler(hub, reader)))
}
