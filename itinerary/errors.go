package itinerary

import (
	"errors"
	"fmt"
)

// Store sentinels. Store implementations wrap these; the scheduler turns
// them into NotFoundError and ConflictError.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

// ValidationError reports malformed or out-of-range input. The message is
// safe to show to the caller as is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type PermissionDeniedError struct {
	UserID      string
	ItineraryID string
	Action      string
}

func (e *PermissionDeniedError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("anonymous caller may not %s itinerary %s", e.Action, e.ItineraryID)
	}
	return fmt.Sprintf("user %s may not %s itinerary %s", e.UserID, e.Action, e.ItineraryID)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError is returned when the caller's expected version is stale.
type ConflictError struct {
	Kind     string
	ID       string
	Expected int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently (expected version %d)", e.Kind, e.ID, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrVersionConflict }

// InsufficientLocationsError means a day has fewer than two located items
// to route between.
type InsufficientLocationsError struct {
	DayIndex int
	Located  int
}

func (e *InsufficientLocationsError) Error() string {
	return fmt.Sprintf("day %d has %d located item(s); add at least 2 located items to compute a route", e.DayIndex, e.Located)
}

// storeErr maps store sentinels onto the typed errors above.
func storeErr(err error, kind, id string, expected int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return &NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, ErrVersionConflict):
		return &ConflictError{Kind: kind, ID: id, Expected: expected}
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}
