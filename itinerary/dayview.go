package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"itinera/dayplan"
	"itinera/directions"
	"itinera/export"
	"itinera/models"
	"itinera/routeopt"
	"itinera/summary"
)

// GetDayView lays out one day: sorted items, the slot grid, free slots and
// the daily summary. A failing forecast read leaves the weather empty.
func (s *Scheduler) GetDayView(ctx context.Context, userID, itineraryID string, dayIndex int) (*models.DayView, error) {
	it, items, err := s.dayItems(ctx, userID, itineraryID, dayIndex)
	if err != nil {
		return nil, err
	}
	return s.dayView(ctx, it, dayIndex, items), nil
}

func (s *Scheduler) dayView(ctx context.Context, it *models.Itinerary, dayIndex int, items []models.Item) *models.DayView {
	date, _ := it.DateOf(dayIndex)
	sorted := dayplan.SortItems(items)
	slots := s.planner.Grid(date, it.Location(), append(s.carriedOver(ctx, it, dayIndex, date), sorted...))

	var forecasts []models.ForecastEntry
	if s.forecasts != nil {
		f, err := s.forecasts.Forecasts(ctx, it.ItineraryID)
		if err != nil {
			log.Printf("[Scheduler] Forecasts for %s unavailable: %v", it.ItineraryID, err)
		}
		forecasts = f
	}

	currency := ""
	if it.Budget != nil {
		currency = it.Budget.Currency
	}

	return &models.DayView{
		ItineraryID: it.ItineraryID,
		DayIndex:    dayIndex,
		Date:        date.Format(models.DateLayout),
		Items:       sorted,
		Slots:       slots,
		FreeSlots:   dayplan.FreeSlots(slots),
		Summary:     summary.Aggregate(date, sorted, forecasts, currency),
	}
}

// ComputeDayRoute routes through the day's located items in chronological
// order.
func (s *Scheduler) ComputeDayRoute(ctx context.Context, userID, itineraryID string, dayIndex int, mode models.TravelMode) (*models.RouteResult, error) {
	return s.dayRoute(ctx, userID, itineraryID, dayIndex, mode, false)
}

// ComputeOptimizedDayRoute routes through the day's located items in
// nearest-neighbour order, starting from the earliest one.
func (s *Scheduler) ComputeOptimizedDayRoute(ctx context.Context, userID, itineraryID string, dayIndex int, mode models.TravelMode) (*models.RouteResult, error) {
	return s.dayRoute(ctx, userID, itineraryID, dayIndex, mode, true)
}

func (s *Scheduler) dayRoute(ctx context.Context, userID, itineraryID string, dayIndex int, mode models.TravelMode, optimize bool) (*models.RouteResult, error) {
	travel, ok := models.ParseTravelMode(string(mode))
	if !ok {
		return nil, &ValidationError{Field: "mode", Reason: "must be driving, walking, bicycling or transit"}
	}
	_, items, err := s.dayItems(ctx, userID, itineraryID, dayIndex)
	if err != nil {
		return nil, err
	}

	var stops []models.RouteStop
	for _, item := range dayplan.SortItems(items) {
		if !item.Located() {
			continue
		}
		stops = append(stops, models.RouteStop{
			ItemID:      item.ItemID,
			Name:        stopName(item),
			Coordinates: item.Location.Coordinates,
		})
	}
	if len(stops) < 2 {
		return nil, &InsufficientLocationsError{DayIndex: dayIndex, Located: len(stops)}
	}

	if optimize {
		if stops, err = routeopt.OptimizeOrder(stops); err != nil {
			return nil, err
		}
	}
	return s.route(ctx, stops, travel)
}

// ComputeOptimizedRoute orders arbitrary stops with the nearest-neighbour
// heuristic and routes through them. No itinerary is involved.
func (s *Scheduler) ComputeOptimizedRoute(ctx context.Context, stops []models.RouteStop, mode models.TravelMode) (*models.RouteResult, error) {
	travel, ok := models.ParseTravelMode(string(mode))
	if !ok {
		return nil, &ValidationError{Field: "mode", Reason: "must be driving, walking, bicycling or transit"}
	}
	for i, st := range stops {
		if !st.Coordinates.Valid() {
			return nil, &ValidationError{Field: "stops", Reason: fmt.Sprintf("stop %d has invalid coordinates", i+1)}
		}
	}
	ordered, err := routeopt.OptimizeOrder(stops)
	if err != nil {
		return nil, err
	}
	return s.route(ctx, ordered, travel)
}

// DaySheet renders the day view as a PDF.
func (s *Scheduler) DaySheet(ctx context.Context, userID, itineraryID string, dayIndex int) ([]byte, error) {
	it, items, err := s.dayItems(ctx, userID, itineraryID, dayIndex)
	if err != nil {
		return nil, err
	}
	view := s.dayView(ctx, it, dayIndex, items)

	shareURL := ""
	if s.shareBaseURL != "" {
		shareURL = fmt.Sprintf("%s/itineraries/%s/days/%d", s.shareBaseURL, itineraryID, dayIndex)
	}
	return export.DaySheet(it, view, shareURL)
}

func (s *Scheduler) route(ctx context.Context, stops []models.RouteStop, mode models.TravelMode) (*models.RouteResult, error) {
	result, err := s.router.ComputeRoute(ctx, directions.NewRequest(stops, mode))
	if err != nil {
		var invalid *directions.InvalidInputError
		if errors.As(err, &invalid) {
			return nil, &ValidationError{Field: invalid.Field, Reason: invalid.Reason}
		}
		return nil, err
	}
	return result, nil
}

func (s *Scheduler) dayItems(ctx context.Context, userID, itineraryID string, dayIndex int) (*models.Itinerary, []models.Item, error) {
	it, err := s.GetItinerary(ctx, userID, itineraryID)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := it.DateOf(dayIndex); !ok {
		return nil, nil, &ValidationError{Field: "day", Reason: fmt.Sprintf("must be between 1 and %d", it.DurationDays())}
	}
	items, err := s.store.ListItems(ctx, itineraryID, dayIndex)
	if err != nil {
		return nil, nil, err
	}
	return it, items, nil
}

// carriedOver returns earlier days' items still running at midnight of
// date. They occupy the grid but are not listed as the day's items.
func (s *Scheduler) carriedOver(ctx context.Context, it *models.Itinerary, dayIndex int, date time.Time) []models.Item {
	if dayIndex <= 1 {
		return nil
	}
	all, err := s.store.ListItems(ctx, it.ItineraryID, 0)
	if err != nil {
		log.Printf("[Scheduler] Items before day %d of %s unavailable: %v", dayIndex, it.ItineraryID, err)
		return nil
	}
	var out []models.Item
	for _, item := range all {
		if item.DayIndex < dayIndex && item.End.After(date) {
			out = append(out, item)
		}
	}
	return out
}

func stopName(item models.Item) string {
	if item.Location.Name != "" {
		return item.Location.Name
	}
	return item.Title
}
