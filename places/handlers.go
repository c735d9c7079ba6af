package places

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"itinera/itinerary"
	"itinera/utils"
)

// GetPlace exposes the directory so clients can look up a place before
// attaching its ID to an item.
func GetPlace(resolver itinerary.PlaceResolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		place, err := resolver.Resolve(ctx, ps.ByName("placeid"))
		if errors.Is(err, ErrPlaceNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Place not found")
			return
		}
		if err != nil {
			log.Printf("[Places] lookup failed: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch place")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, place)
	}
}
