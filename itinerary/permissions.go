package itinerary

import "itinera/models"

// CanRead reports whether userID may view it: the owner, any collaborator,
// or anyone once the itinerary is published.
func CanRead(it *models.Itinerary, userID string) bool {
	if it.Published {
		return true
	}
	if userID == "" {
		return false
	}
	if it.UserID == userID {
		return true
	}
	_, ok := it.Collaborator(userID)
	return ok
}

// CanEdit reports whether userID may mutate it: the owner or a collaborator
// holding edit permission.
func CanEdit(it *models.Itinerary, userID string) bool {
	if userID == "" {
		return false
	}
	if it.UserID == userID {
		return true
	}
	c, ok := it.Collaborator(userID)
	return ok && c.Permission == models.PermissionEdit
}

func IsOwner(it *models.Itinerary, userID string) bool {
	return userID != "" && it.UserID == userID
}

func requireRead(it *models.Itinerary, userID string) error {
	if !CanRead(it, userID) {
		return &PermissionDeniedError{UserID: userID, ItineraryID: it.ItineraryID, Action: "view"}
	}
	return nil
}

func requireEdit(it *models.Itinerary, userID string) error {
	if !CanEdit(it, userID) {
		return &PermissionDeniedError{UserID: userID, ItineraryID: it.ItineraryID, Action: "edit"}
	}
	return nil
}

func requireOwner(it *models.Itinerary, userID, action string) error {
	if !IsOwner(it, userID) {
		return &PermissionDeniedError{UserID: userID, ItineraryID: it.ItineraryID, Action: action}
	}
	return nil
}
