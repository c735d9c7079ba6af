package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/globals"
	"itinera/models"
)

// asUser stands in for middleware.Authenticate.
func asUser(userID string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if userID != "" {
			r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID))
		}
		next(w, r, ps)
	}
}

func serve(t *testing.T, h httprouter.Handle, pattern, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	router := httprouter.New()
	router.Handle(method, pattern, asUser(userID, h))

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndGet(t *testing.T) {
	f := newFixture(t, nil)
	h := NewHandler(f.s)

	rec := serve(t, h.CreateItinerary, "/api/itineraries", http.MethodPost, "/api/itineraries", owner,
		ItineraryInput{Name: "Coast", StartDate: "2024-05-01", EndDate: "2024-05-04"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Itinerary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, owner, created.UserID)

	rec = serve(t, h.GetItinerary, "/api/itineraries/all/:id", http.MethodGet, "/api/itineraries/all/"+created.ItineraryID, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h.GetItinerary, "/api/itineraries/all/:id", http.MethodGet, "/api/itineraries/all/missing", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.GetItinerary, "/api/itineraries/all/:id", http.MethodGet, "/api/itineraries/all/"+created.ItineraryID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, h.CreateItinerary, "/api/itineraries", http.MethodPost, "/api/itineraries", owner,
		ItineraryInput{Name: "Backwards", StartDate: "2024-05-04", EndDate: "2024-05-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerItemPermissions(t *testing.T) {
	f := newFixture(t, nil)
	it := f.trip(t)
	h := NewHandler(f.s)
	target := "/api/itineraries/" + it.ItineraryID + "/items"
	in := activity("Museum", 1, at(1, 9, 0), at(1, 11, 0))

	rec := serve(t, h.AddItem, "/api/itineraries/:id/items", http.MethodPost, target, viewer, in)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, h.AddItem, "/api/itineraries/:id/items", http.MethodPost, target, editor, in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res MutationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotNil(t, res.Overlaps)
	assert.Empty(t, res.Overlaps)

	rec = serve(t, h.GetDayView, "/api/itineraries/all/:id/days/:day", http.MethodGet,
		"/api/itineraries/all/"+it.ItineraryID+"/days/1", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.DayView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Items, 1)

	rec = serve(t, h.GetDayView, "/api/itineraries/all/:id/days/:day", http.MethodGet,
		"/api/itineraries/all/"+it.ItineraryID+"/days/one", viewer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDayRoute(t *testing.T) {
	f := newFixture(t, nil)
	it := f.trip(t)
	h := NewHandler(f.s)
	ctx := context.Background()
	pattern := "/api/itineraries/:id/days/:day/route"
	target := "/api/itineraries/" + it.ItineraryID + "/days/2/route"

	_, err := f.s.AddItem(ctx, owner, it.ItineraryID, located(activity("A", 2, at(2, 9, 0), at(2, 10, 0)), 38.0675, -120.5436))
	require.NoError(t, err)

	rec := serve(t, h.ComputeDayRoute, pattern, http.MethodPost, target, owner, map[string]any{"mode": "walking"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	_, err = f.s.AddItem(ctx, owner, it.ItineraryID, located(activity("B", 2, at(2, 14, 0), at(2, 15, 0)), 38.1377, -120.4638))
	require.NoError(t, err)

	rec = serve(t, h.ComputeDayRoute, pattern, http.MethodPost, target, viewer, map[string]any{"mode": "walking", "optimize": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var route models.RouteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &route))
	assert.True(t, route.Estimated)
	assert.Equal(t, models.ModeWalking, route.Mode)

	rec = serve(t, h.ComputeDayRoute, pattern, http.MethodPost, target, owner, map[string]any{"mode": "rocket"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerOptimizeRoute(t *testing.T) {
	f := newFixture(t, nil)
	h := NewHandler(f.s)

	rec := serve(t, h.OptimizeRoute, "/api/routes/optimize", http.MethodPost, "/api/routes/optimize", "", map[string]any{
		"stops": []models.RouteStop{{Name: "only", Coordinates: models.Coordinates{Latitude: 1, Longitude: 1}}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, h.OptimizeRoute, "/api/routes/optimize", http.MethodPost, "/api/routes/optimize", "", map[string]any{
		"mode": "driving",
		"stops": []models.RouteStop{
			{Name: "a", Coordinates: models.Coordinates{Latitude: 1, Longitude: 1}},
			{Name: "c", Coordinates: models.Coordinates{Latitude: 1, Longitude: 3}},
			{Name: "b", Coordinates: models.Coordinates{Latitude: 1, Longitude: 2}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var route models.RouteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &route))
	require.Len(t, route.Stops, 3)
	assert.Equal(t, "b", route.Stops[1].Name)
}

func TestHandlerDaySheet(t *testing.T) {
	f := newFixture(t, nil)
	it := f.trip(t)
	h := NewHandler(f.s)

	rec := serve(t, h.GetDaySheet, "/api/itineraries/all/:id/days/:day/sheet", http.MethodGet,
		"/api/itineraries/all/"+it.ItineraryID+"/days/1/sheet", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestHandlerVersionConflict(t *testing.T) {
	f := newFixture(t, nil)
	it := f.trip(t)
	h := NewHandler(f.s)

	rec := serve(t, h.UpdateItinerary, "/api/itineraries/:id", http.MethodPut, "/api/itineraries/"+it.ItineraryID, owner,
		ItineraryInput{Name: "Renamed", StartDate: "2024-03-01", EndDate: "2024-03-03", Version: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, h.UpdateItinerary, "/api/itineraries/:id", http.MethodPut, "/api/itineraries/"+it.ItineraryID, owner,
		ItineraryInput{Name: "Renamed", StartDate: "2024-03-01", EndDate: "2024-03-03", Version: it.Version})
	assert.Equal(t, http.StatusOK, rec.Code)
}
