package itinerary

import (
	"strings"
	"time"

	"itinera/models"
)

func validateItinerary(it *models.Itinerary) error {
	if strings.TrimSpace(it.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if it.TimeZone != "" {
		if _, err := time.LoadLocation(it.TimeZone); err != nil {
			return &ValidationError{Field: "time_zone", Reason: "unknown time zone " + it.TimeZone}
		}
	}
	start, end, err := it.Bounds()
	if err != nil {
		return &ValidationError{Field: "dates", Reason: "dates must be formatted YYYY-MM-DD"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if it.Budget != nil && it.Budget.Amount < 0 {
		return &ValidationError{Field: "budget", Reason: "must not be negative"}
	}
	switch it.Status {
	case models.StatusDraft, models.StatusConfirmed:
	default:
		return &ValidationError{Field: "status", Reason: "must be Draft or Confirmed"}
	}
	return nil
}

// validateItem checks an item against its parent itinerary. Start must fall
// on the calendar date of the item's day; End may run past midnight.
func validateItem(it *models.Itinerary, item *models.Item) error {
	if !item.Category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + string(item.Category)}
	}
	if strings.TrimSpace(item.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	date, ok := it.DateOf(item.DayIndex)
	if !ok {
		return &ValidationError{Field: "day_index", Reason: "must be between 1 and the trip length"}
	}
	if item.Start.IsZero() || item.End.IsZero() {
		return &ValidationError{Field: "start", Reason: "start and end are required"}
	}
	if item.End.Before(item.Start) {
		return &ValidationError{Field: "end", Reason: "must not be before start"}
	}
	if local := item.Start.In(it.Location()); local.Format(models.DateLayout) != date.Format(models.DateLayout) {
		return &ValidationError{Field: "start", Reason: "must fall on " + date.Format(models.DateLayout)}
	}
	if item.Location != nil {
		c := item.Location.Coordinates
		set := c.Latitude != 0 || c.Longitude != 0
		if set && !c.Valid() {
			return &ValidationError{Field: "location", Reason: "coordinates out of range"}
		}
	}
	if item.Cost != nil && item.Cost.Amount < 0 {
		return &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	return validatePayload(item)
}

func validatePayload(item *models.Item) error {
	if item.Transport != nil && item.Category != models.CategoryTransport {
		return &ValidationError{Field: "transport", Reason: "only transport items carry transport details"}
	}
	if item.Accommodation != nil && item.Category != models.CategoryAccommodation {
		return &ValidationError{Field: "accommodation", Reason: "only accommodation items carry accommodation details"}
	}
	if item.Meal != nil && item.Category != models.CategoryMeal {
		return &ValidationError{Field: "meal", Reason: "only meal items carry meal details"}
	}

	switch item.Category {
	case models.CategoryTransport:
		if item.Transport == nil || strings.TrimSpace(item.Transport.Method) == "" {
			return &ValidationError{Field: "transport.method", Reason: "is required"}
		}
		if d := item.Transport.DistanceKm; d != nil && *d < 0 {
			return &ValidationError{Field: "transport.distance_km", Reason: "must not be negative"}
		}
	case models.CategoryAccommodation:
		if a := item.Accommodation; a != nil && !a.CheckIn.IsZero() && !a.CheckOut.IsZero() && a.CheckOut.Before(a.CheckIn) {
			return &ValidationError{Field: "accommodation.check_out", Reason: "must not be before check_in"}
		}
	}
	return nil
}
