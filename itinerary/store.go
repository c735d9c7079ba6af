package itinerary

import (
	"context"

	"itinera/models"
)

// Filter narrows ListItineraries. Member restricts to itineraries the user
// owns or collaborates on; the remaining fields are exact-match filters
// except Query, a case-insensitive name search.
type Filter struct {
	Member    string
	StartDate string
	Status    string
	Published *bool
	Query     string
}

// Store persists itineraries and their items. Implementations return
// errors wrapping ErrNotFound for missing or deleted records and
// ErrVersionConflict when expectedVersion does not match.
type Store interface {
	CreateItinerary(ctx context.Context, it *models.Itinerary) error
	GetItinerary(ctx context.Context, id string) (*models.Itinerary, error)
	ListItineraries(ctx context.Context, f Filter) ([]models.Itinerary, error)
	// UpdateItinerary replaces the stored document and bumps Version.
	UpdateItinerary(ctx context.Context, it *models.Itinerary, expectedVersion int64) error
	// DeleteItinerary soft-deletes the itinerary and removes its items.
	DeleteItinerary(ctx context.Context, id string) error

	// AddItem assigns Seq and sets Version to 1.
	AddItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, itineraryID, itemID string) (*models.Item, error)
	// ListItems returns items in insertion (Seq) order. dayIndex 0 lists
	// every day.
	ListItems(ctx context.Context, itineraryID string, dayIndex int) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item, expectedVersion int64) error
	DeleteItem(ctx context.Context, itineraryID, itemID string) error
}

// ForecastStore reads the per-itinerary weather forecast, written by a
// separate subsystem.
type ForecastStore interface {
	Forecasts(ctx context.Context, itineraryID string) ([]models.ForecastEntry, error)
}

// PlaceResolver looks up a location directory entry by ID.
type PlaceResolver interface {
	Resolve(ctx context.Context, placeID string) (*models.Place, error)
}

// Emitter publishes change events for live collaboration.
type Emitter interface {
	Emit(ctx context.Context, ev models.ItineraryEvent) error
}
