package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"itinera/directions"
	"itinera/models"
	"itinera/routeopt"
	"itinera/utils"
)

const requestTimeout = 15 * time.Second

// Handler exposes a Scheduler over HTTP.
type Handler struct {
	s *Scheduler
}

func NewHandler(s *Scheduler) *Handler {
	return &Handler{s: s}
}

// POST /api/itineraries
func (h *Handler) CreateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in ItineraryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.CreateItinerary(ctx, utils.GetUserIDFromRequest(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, it)
}

// GET /api/itineraries
func (h *Handler) GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.s.ListItineraries(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/itineraries/search
func (h *Handler) SearchItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	f := Filter{
		StartDate: query.Get("start_date"),
		Status:    query.Get("status"),
		Query:     query.Get("q"),
		Published: utils.QueryBool(r, "published"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.s.Search(ctx, utils.GetUserIDFromRequest(r), f)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/itineraries/all/:id
func (h *Handler) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	it, err := h.s.GetItinerary(ctx, userID, ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.s.ListItems(ctx, userID, it.ItineraryID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"itinerary": it, "items": items})
}

// PUT /api/itineraries/:id
func (h *Handler) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in ItineraryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.UpdateItinerary(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// DELETE /api/itineraries/:id
func (h *Handler) DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.s.DeleteItinerary(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary deleted successfully"})
}

// POST /api/itineraries/:id/fork
func (h *Handler) ForkItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.Fork(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, it)
}

// PUT /api/itineraries/:id/publish
func (h *Handler) PublishItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body := struct {
		Published *bool `json:"published"`
	}{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	published := true
	if body.Published != nil {
		published = *body.Published
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.Publish(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), published)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// POST /api/itineraries/:id/collaborators
func (h *Handler) AddCollaborator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		UserID     string            `json:"user_id"`
		Permission models.Permission `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.AddCollaborator(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), body.UserID, body.Permission)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// DELETE /api/itineraries/:id/collaborators/:userid
func (h *Handler) RemoveCollaborator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	it, err := h.s.RemoveCollaborator(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), ps.ByName("userid"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// GET /api/itineraries/all/:id/days/:day
func (h *Handler) GetDayView(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.s.GetDayView(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), day)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

// GET /api/itineraries/all/:id/days/:day/sheet
func (h *Handler) GetDaySheet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	pdf, err := h.s.DaySheet(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), day)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=day-"+strconv.Itoa(day)+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// POST /api/itineraries/:id/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.s.AddItem(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, res)
}

// PUT /api/itineraries/:id/items/:itemid
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.s.UpdateItem(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), ps.ByName("itemid"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/itineraries/:id/items/:itemid/move
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in MoveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.s.MoveItem(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), ps.ByName("itemid"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// DELETE /api/itineraries/:id/items/:itemid
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.s.DeleteItem(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), ps.ByName("itemid")); err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Item deleted successfully"})
}

// POST /api/itineraries/:id/days/:day/route
func (h *Handler) ComputeDayRoute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	var body struct {
		Mode     models.TravelMode `json:"mode"`
		Optimize bool              `json:"optimize"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	// The route call is bound to the request: if the client goes away the
	// provider call is cancelled and nothing is stored.
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	var (
		route *models.RouteResult
		err   error
	)
	if body.Optimize {
		route, err = h.s.ComputeOptimizedDayRoute(ctx, userID, ps.ByName("id"), day, body.Mode)
	} else {
		route, err = h.s.ComputeDayRoute(ctx, userID, ps.ByName("id"), day, body.Mode)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, route)
}

// POST /api/routes/optimize
func (h *Handler) OptimizeRoute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Stops []models.RouteStop `json:"stops"`
		Mode  models.TravelMode  `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	route, err := h.s.ComputeOptimizedRoute(ctx, body.Stops, body.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, route)
}

func dayParam(w http.ResponseWriter, ps httprouter.Params) (int, bool) {
	day, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "day must be a number")
		return 0, false
	}
	return day, true
}

// writeError maps engine errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation   *ValidationError
		denied       *PermissionDeniedError
		notFound     *NotFoundError
		conflict     *ConflictError
		insufficient *InsufficientLocationsError
		invalid      *directions.InvalidInputError
		provider     *directions.ProviderError
	)

	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &invalid):
		utils.RespondWithError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &denied):
		if denied.UserID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.As(err, &notFound):
		utils.RespondWithError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		utils.RespondWithError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &insufficient):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, insufficient.Error())
	case errors.Is(err, routeopt.ErrInsufficientStops):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &provider):
		utils.RespondWithError(w, http.StatusBadGateway, provider.Error())
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(w, http.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		// Client is gone; nothing useful to write.
		log.Printf("[Handler] Request cancelled: %v", err)
	default:
		log.Printf("[Handler] Internal error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
