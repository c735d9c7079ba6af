// Package dayplan lays a trip day out on a fixed grid of time slots and
// detects overlapping items.
package dayplan

import (
	"sort"
	"time"

	"itinera/models"
)

// Planner describes the slot grid of a day. DayStart and DayEnd are offsets
// from local midnight.
type Planner struct {
	DayStart  time.Duration
	DayEnd    time.Duration
	SlotWidth time.Duration
}

// Default is a 30-minute grid from 06:00 to 24:00.
var Default = Planner{
	DayStart:  6 * time.Hour,
	DayEnd:    24 * time.Hour,
	SlotWidth: 30 * time.Minute,
}

// New returns a planner, substituting Default's values for non-positive or
// inconsistent arguments.
func New(dayStart, dayEnd, slotWidth time.Duration) Planner {
	p := Default
	if dayStart >= 0 && dayEnd > dayStart && dayEnd <= 24*time.Hour {
		p.DayStart = dayStart
		p.DayEnd = dayEnd
	}
	if slotWidth > 0 {
		p.SlotWidth = slotWidth
	}
	return p
}

// SortItems returns a copy of items sorted ascending by start time. Items
// with equal start times keep their input order, which callers supply in
// insertion order.
func SortItems(items []models.Item) []models.Item {
	sorted := make([]models.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// Grid builds the slot grid for the calendar day of date in loc. A slot is
// occupied when its start falls inside [item.Start, item.End) of any item.
func (p Planner) Grid(date time.Time, loc *time.Location, items []models.Item) []models.TimeSlot {
	if loc == nil {
		loc = time.UTC
	}
	date = date.In(loc)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	var slots []models.TimeSlot
	for off := p.DayStart; off < p.DayEnd; off += p.SlotWidth {
		end := off + p.SlotWidth
		if end > p.DayEnd {
			end = p.DayEnd
		}
		slot := models.TimeSlot{
			Start: wallClock(midnight, off, loc),
			End:   wallClock(midnight, end, loc),
		}
		for _, it := range items {
			if !slot.Start.Before(it.Start) && slot.Start.Before(it.End) {
				slot.Occupied = true
				slot.ItemIDs = append(slot.ItemIDs, it.ItemID)
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

// FreeSlots filters the unoccupied slots of a grid.
func FreeSlots(slots []models.TimeSlot) []models.TimeSlot {
	free := []models.TimeSlot{}
	for _, s := range slots {
		if !s.Occupied {
			free = append(free, s)
		}
	}
	return free
}

// FirstFreeSlotAfter scans the grid for the first free slot starting at or
// after t. ok is false when none remains before the end of the day.
func FirstFreeSlotAfter(slots []models.TimeSlot, t time.Time) (slot models.TimeSlot, ok bool) {
	for _, s := range slots {
		if s.Start.Before(t) {
			continue
		}
		if !s.Occupied {
			return s, true
		}
	}
	return models.TimeSlot{}, false
}

// Overlaps returns the items whose interval intersects candidate's. The
// candidate itself (same ItemID) is never reported. Touching intervals do
// not overlap.
func Overlaps(candidate models.Item, items []models.Item) []models.Item {
	out := []models.Item{}
	for _, it := range items {
		if candidate.ItemID != "" && it.ItemID == candidate.ItemID {
			continue
		}
		if intersects(candidate, it) {
			out = append(out, it)
		}
	}
	return out
}

func intersects(a, b models.Item) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// wallClock resolves an offset from midnight as a wall-clock time so that
// DST transitions do not shift the grid.
func wallClock(midnight time.Time, off time.Duration, loc *time.Location) time.Time {
	h := int(off / time.Hour)
	m := int((off % time.Hour) / time.Minute)
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), h, m, 0, 0, loc)
}
