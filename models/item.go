package models

import "time"

type Category string

const (
	CategoryActivity      Category = "activity"
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryMeal          Category = "meal"
	CategoryRest          Category = "rest"
	CategoryOther         Category = "other"
)

// Categories lists every item category in display order.
var Categories = []Category{
	CategoryActivity,
	CategoryTransport,
	CategoryAccommodation,
	CategoryMeal,
	CategoryRest,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Location is an optional located point attached to an item.
type Location struct {
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	Name        string      `json:"name,omitempty" bson:"name,omitempty"`
	Address     string      `json:"address,omitempty" bson:"address,omitempty"`
	PlaceID     string      `json:"place_id,omitempty" bson:"place_id,omitempty"`
}

type TransportDetails struct {
	Method     string   `json:"method" bson:"method"`
	From       string   `json:"from,omitempty" bson:"from,omitempty"`
	To         string   `json:"to,omitempty" bson:"to,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
	Polyline   string   `json:"polyline,omitempty" bson:"polyline,omitempty"`
}

type AccommodationDetails struct {
	CheckIn      time.Time `json:"check_in" bson:"check_in"`
	CheckOut     time.Time `json:"check_out" bson:"check_out"`
	PropertyType string    `json:"property_type,omitempty" bson:"property_type,omitempty"`
}

type MealDetails struct {
	MealType string `json:"meal_type,omitempty" bson:"meal_type,omitempty"` // breakfast/lunch/dinner/snack
	Cuisine  string `json:"cuisine,omitempty" bson:"cuisine,omitempty"`
}

// Item is a single timed entry of an itinerary. Items have no lifecycle of
// their own: deleting the itinerary deletes its items.
type Item struct {
	ItemID      string    `json:"itemid" bson:"itemid"`
	ItineraryID string    `json:"itineraryid" bson:"itineraryid"`
	Category    Category  `json:"category" bson:"category"`
	Title       string    `json:"title" bson:"title"`
	DayIndex    int       `json:"day_index" bson:"day_index"`
	Start       time.Time `json:"start" bson:"start"`
	End         time.Time `json:"end" bson:"end"`
	// Duration is derived from Start/End; see SetTimes.
	Duration time.Duration `json:"duration" bson:"duration"`
	Location *Location     `json:"location,omitempty" bson:"location,omitempty"`
	Cost     *Money        `json:"cost,omitempty" bson:"cost,omitempty"`
	Notes    string        `json:"notes,omitempty" bson:"notes,omitempty"`
	Photos   []string      `json:"photos,omitempty" bson:"photos,omitempty"`

	Transport     *TransportDetails     `json:"transport,omitempty" bson:"transport,omitempty"`
	Accommodation *AccommodationDetails `json:"accommodation,omitempty" bson:"accommodation,omitempty"`
	Meal          *MealDetails          `json:"meal,omitempty" bson:"meal,omitempty"`

	Seq       int64     `json:"seq" bson:"seq"`
	Version   int64     `json:"version" bson:"version"`
	CreatedBy string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SetTimes assigns Start/End and recomputes Duration.
func (i *Item) SetTimes(start, end time.Time) {
	i.Start = start
	i.End = end
	i.Duration = end.Sub(start)
}

// Located reports whether the item carries a usable coordinate pair.
func (i *Item) Located() bool {
	return i.Location != nil && i.Location.Coordinates.Valid()
}
