package itinerary

import (
	"context"
	"log"
	"time"

	"itinera/dayplan"
	"itinera/models"
)

// ItemInput carries the caller-editable fields of an item.
type ItemInput struct {
	Category      models.Category              `json:"category"`
	Title         string                       `json:"title"`
	DayIndex      int                          `json:"day_index"`
	Start         time.Time                    `json:"start"`
	End           time.Time                    `json:"end"`
	Location      *models.Location             `json:"location,omitempty"`
	Cost          *models.Money                `json:"cost,omitempty"`
	Notes         string                       `json:"notes,omitempty"`
	Photos        []string                     `json:"photos,omitempty"`
	Transport     *models.TransportDetails     `json:"transport,omitempty"`
	Accommodation *models.AccommodationDetails `json:"accommodation,omitempty"`
	Meal          *models.MealDetails          `json:"meal,omitempty"`
	// Version is the item version the caller last saw; 0 skips the check.
	Version int64 `json:"version,omitempty"`
}

// MoveInput relocates an item to another day and/or time. A zero DayIndex
// keeps the current day; a zero Start keeps the time of day and duration.
type MoveInput struct {
	DayIndex int       `json:"day_index"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
	Version  int64     `json:"version,omitempty"`
}

// MutationResult is the stored item plus the stored items it overlaps.
// Overlaps are a warning; the mutation has been applied.
type MutationResult struct {
	Item     *models.Item  `json:"item"`
	Overlaps []models.Item `json:"overlaps"`
}

func (in ItemInput) apply(item *models.Item) {
	item.Category = in.Category
	item.Title = in.Title
	item.DayIndex = in.DayIndex
	item.SetTimes(in.Start, in.End)
	item.Location = in.Location
	item.Cost = in.Cost
	item.Notes = in.Notes
	item.Photos = in.Photos
	item.Transport = in.Transport
	item.Accommodation = in.Accommodation
	item.Meal = in.Meal
}

func (s *Scheduler) AddItem(ctx context.Context, userID, itineraryID string, in ItemInput) (*MutationResult, error) {
	unlock := s.locks.Lock(itineraryID)
	defer unlock()

	it, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.Item{
		ItemID:      s.newID(),
		ItineraryID: itineraryID,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	in.apply(item)
	s.resolvePlace(ctx, item)
	if err := validateItem(it, item); err != nil {
		return nil, err
	}

	overlaps, err := s.overlaps(ctx, item)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddItem(ctx, item); err != nil {
		return nil, storeErr(err, "itinerary", itineraryID, 0)
	}

	logOverlaps("Added", item, overlaps)
	s.emitItem(ctx, models.OpItemAdded, userID, item)
	return &MutationResult{Item: item, Overlaps: overlaps}, nil
}

func (s *Scheduler) UpdateItem(ctx context.Context, userID, itineraryID, itemID string, in ItemInput) (*MutationResult, error) {
	return s.mutateItem(ctx, userID, itineraryID, itemID, in.Version, models.OpItemUpdated, func(it *models.Itinerary, item *models.Item) {
		in.apply(item)
	})
}

// MoveItem changes an item's day and/or time and re-runs overlap detection.
func (s *Scheduler) MoveItem(ctx context.Context, userID, itineraryID, itemID string, in MoveInput) (*MutationResult, error) {
	return s.mutateItem(ctx, userID, itineraryID, itemID, in.Version, models.OpItemMoved, func(it *models.Itinerary, item *models.Item) {
		if in.DayIndex == 0 {
			in.DayIndex = item.DayIndex
		}
		if !in.Start.IsZero() {
			end := in.End
			if end.IsZero() {
				end = in.Start.Add(item.Duration)
			}
			item.DayIndex = in.DayIndex
			item.SetTimes(in.Start, end)
			return
		}
		shift := in.DayIndex - item.DayIndex
		item.DayIndex = in.DayIndex
		if shift != 0 {
			shiftItem(item, shift, it.Location())
		}
	})
}

func (s *Scheduler) DeleteItem(ctx context.Context, userID, itineraryID, itemID string) error {
	unlock := s.locks.Lock(itineraryID)
	defer unlock()

	if _, err := s.editable(ctx, userID, itineraryID); err != nil {
		return err
	}
	item, err := s.store.GetItem(ctx, itineraryID, itemID)
	if err != nil {
		return storeErr(err, "item", itemID, 0)
	}
	if err := s.store.DeleteItem(ctx, itineraryID, itemID); err != nil {
		return storeErr(err, "item", itemID, item.Version)
	}

	log.Printf("[Scheduler] Deleted item %s from %s", itemID, itineraryID)
	s.emit(ctx, models.ItineraryEvent{ItineraryID: itineraryID, ItemID: itemID, Op: models.OpItemDeleted, ActorID: userID, Version: item.Version + 1})
	return nil
}

func (s *Scheduler) mutateItem(ctx context.Context, userID, itineraryID, itemID string, expected int64, op models.EventOp, change func(*models.Itinerary, *models.Item)) (*MutationResult, error) {
	unlock := s.locks.Lock(itineraryID)
	defer unlock()

	it, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetItem(ctx, itineraryID, itemID)
	if err != nil {
		return nil, storeErr(err, "item", itemID, 0)
	}
	if expected != 0 && expected != item.Version {
		return nil, &ConflictError{Kind: "item", ID: itemID, Expected: expected}
	}

	version := item.Version
	change(it, item)
	item.UpdatedAt = s.now().UTC()
	s.resolvePlace(ctx, item)
	if err := validateItem(it, item); err != nil {
		return nil, err
	}

	overlaps, err := s.overlaps(ctx, item)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateItem(ctx, item, version); err != nil {
		return nil, storeErr(err, "item", itemID, version)
	}

	logOverlaps("Updated", item, overlaps)
	s.emitItem(ctx, op, userID, item)
	return &MutationResult{Item: item, Overlaps: overlaps}, nil
}

func (s *Scheduler) editable(ctx context.Context, userID, itineraryID string) (*models.Itinerary, error) {
	it, err := s.load(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(it, userID); err != nil {
		return nil, err
	}
	return it, nil
}

// overlaps lists the stored items whose interval intersects item. Items of
// other days count too, since End may run past midnight.
func (s *Scheduler) overlaps(ctx context.Context, item *models.Item) ([]models.Item, error) {
	all, err := s.store.ListItems(ctx, item.ItineraryID, 0)
	if err != nil {
		return nil, err
	}
	return dayplan.Overlaps(*item, all), nil
}

// resolvePlace fills the item's location from the location directory. On
// any failure the manually entered fields are kept.
func (s *Scheduler) resolvePlace(ctx context.Context, item *models.Item) {
	if s.places == nil || item.Location == nil || item.Location.PlaceID == "" {
		return
	}
	place, err := s.places.Resolve(ctx, item.Location.PlaceID)
	if err != nil {
		log.Printf("[Scheduler] Place %s not resolved, keeping entered location: %v", item.Location.PlaceID, err)
		return
	}
	loc := *item.Location
	if place.Name != "" {
		loc.Name = place.Name
	}
	if place.Address != "" {
		loc.Address = place.Address
	}
	if place.Location.Valid() {
		loc.Coordinates = place.Location
	}
	item.Location = &loc
}

func (s *Scheduler) emitItem(ctx context.Context, op models.EventOp, userID string, item *models.Item) {
	snapshot := *item
	s.emit(ctx, models.ItineraryEvent{
		ItineraryID: item.ItineraryID,
		ItemID:      item.ItemID,
		Op:          op,
		ActorID:     userID,
		Version:     item.Version,
		Item:        &snapshot,
	})
}

func logOverlaps(verb string, item *models.Item, overlaps []models.Item) {
	if len(overlaps) == 0 {
		log.Printf("[Scheduler] %s item %s on day %d", verb, item.ItemID, item.DayIndex)
		return
	}
	log.Printf("[Scheduler] %s item %s on day %d overlapping %d item(s)", verb, item.ItemID, item.DayIndex, len(overlaps))
}
