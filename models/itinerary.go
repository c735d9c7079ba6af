package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for itinerary bounds and day dates.
const DateLayout = "2006-01-02"

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

type Collaborator struct {
	UserID     string     `json:"user_id" bson:"user_id"`
	Permission Permission `json:"permission" bson:"permission"`
	AddedAt    time.Time  `json:"added_at" bson:"added_at"`
}

type Money struct {
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

// Itinerary represents the travel itinerary
type Itinerary struct {
	ItineraryID   string         `json:"itineraryid" bson:"itineraryid"`
	UserID        string         `json:"user_id" bson:"user_id"`
	Name          string         `json:"name" bson:"name"`
	Description   string         `json:"description" bson:"description"`
	StartDate     string         `json:"start_date" bson:"start_date"`
	EndDate       string         `json:"end_date" bson:"end_date"`
	TimeZone      string         `json:"time_zone,omitempty" bson:"time_zone,omitempty"`
	Collaborators []Collaborator `json:"collaborators" bson:"collaborators"`
	Budget        *Money         `json:"budget,omitempty" bson:"budget,omitempty"`
	Status        string         `json:"status" bson:"status"` // Draft/Confirmed
	Published     bool           `json:"published" bson:"published"`
	ForkedFrom    *string        `json:"forked_from,omitempty" bson:"forked_from,omitempty"`
	Deleted       bool           `json:"-" bson:"deleted,omitempty"` // Internal use only
	Version       int64          `json:"version" bson:"version"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

const (
	StatusDraft     = "Draft"
	StatusConfirmed = "Confirmed"
)

// Location returns the itinerary's time zone, falling back to UTC for
// empty or unknown names.
func (it *Itinerary) Location() *time.Location {
	if it.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(it.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Bounds parses StartDate and EndDate in the itinerary's time zone.
func (it *Itinerary) Bounds() (start, end time.Time, err error) {
	loc := it.Location()
	start, err = time.ParseInLocation(DateLayout, it.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", it.StartDate, err)
	}
	end, err = time.ParseInLocation(DateLayout, it.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", it.EndDate, err)
	}
	return start, end, nil
}

// DurationDays is the inclusive number of calendar days the trip spans.
// It returns 0 when the bounds are unparseable or inverted.
func (it *Itinerary) DurationDays() int {
	start, end, err := it.Bounds()
	if err != nil || end.Before(start) {
		return 0
	}
	return daysBetween(start, end) + 1
}

// Days lists the calendar dates spanned by the trip, in order.
func (it *Itinerary) Days() []time.Time {
	n := it.DurationDays()
	if n == 0 {
		return nil
	}
	start, _, _ := it.Bounds()
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DateOf returns the calendar date (midnight, itinerary time zone) of a
// 1-based day index.
func (it *Itinerary) DateOf(dayIndex int) (time.Time, bool) {
	if dayIndex < 1 || dayIndex > it.DurationDays() {
		return time.Time{}, false
	}
	start, _, _ := it.Bounds()
	return start.AddDate(0, 0, dayIndex-1), true
}

func (it *Itinerary) Collaborator(userID string) (Collaborator, bool) {
	for _, c := range it.Collaborators {
		if c.UserID == userID {
			return c, true
		}
	}
	return Collaborator{}, false
}

// daysBetween counts calendar days, immune to DST-length days.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
