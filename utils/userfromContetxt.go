package utils

import (
	"net/http"

	"itinera/globals"
)

// GetUserIDFromRequest returns the caller recorded by the auth middleware,
// or "" for anonymous requests.
func GetUserIDFromRequest(r *http.Request) string {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
