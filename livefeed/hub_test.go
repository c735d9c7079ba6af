package livefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/globals"
	"itinera/itinerary"
	"itinera/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	watcher := &Client{Send: make(chan []byte, 10), Room: "it-1"}
	other := &Client{Send: make(chan []byte, 10), Room: "it-2"}
	require.True(t, hub.join(watcher))
	require.True(t, hub.join(other))

	hub.Publish(models.ItineraryEvent{EventID: "e1", ItineraryID: "it-1", Op: models.OpItemAdded})

	select {
	case got := <-watcher.Send:
		var ev models.ItineraryEvent
		require.NoError(t, json.Unmarshal(got, &ev))
		assert.Equal(t, "e1", ev.EventID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	assert.Empty(t, other.Send)

	hub.leave(watcher)
	assert.Eventually(t, func() bool { return hub.Subscribers("it-1") == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-watcher.Send
	assert.False(t, open)
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte, 1), Room: "it-1"}
	require.True(t, hub.join(slow))

	hub.Publish(models.ItineraryEvent{ItineraryID: "it-1"})
	hub.Publish(models.ItineraryEvent{ItineraryID: "it-1"})

	assert.Eventually(t, func() bool { return hub.Subscribers("it-1") == 0 }, time.Second, 10*time.Millisecond)
	// A late unregister for an already dropped client must not double close.
	hub.leave(slow)
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	c := &Client{Send: make(chan []byte, 1), Room: "it-1"}
	require.True(t, hub.join(c))
	hub.Stop()
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.False(t, hub.join(&Client{Send: make(chan []byte), Room: "it-1"}))
	require.NoError(t, hub.Emit(context.Background(), models.ItineraryEvent{ItineraryID: "it-1"}))
}

type stubReader map[string]string

func (s stubReader) GetItinerary(_ context.Context, userID, id string) (*models.Itinerary, error) {
	owner, ok := s[id]
	if !ok {
		return nil, &itinerary.NotFoundError{Kind: "itinerary", ID: id}
	}
	if userID != owner {
		return nil, &itinerary.PermissionDeniedError{UserID: userID, ItineraryID: id, Action: "view"}
	}
	return &models.Itinerary{ItineraryID: id, UserID: owner}, nil
}

func newFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	handle := WebSocketHandler(hub, stubReader{"it-1": "alice"})
	router.GET("/ws/itineraries/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if user := r.URL.Query().Get("as"); user != "" {
			r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, user))
		}
		handle(w, r, ps)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketFeed(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := newFeedServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/itineraries/it-1?as=alice"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("it-1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(models.ItineraryEvent{EventID: "e7", ItineraryID: "it-1", Op: models.OpItemMoved})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.ItineraryEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "e7", ev.EventID)
	assert.Equal(t, models.OpItemMoved, ev.Op)
}

func TestWebSocketAccessDenied(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := newFeedServer(t, hub)
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	cases := map[string]int{
		"/ws/itineraries/it-1":        http.StatusUnauthorized,
		"/ws/itineraries/it-1?as=bob": http.StatusForbidden,
		"/ws/itineraries/nope?as=bob": http.StatusNotFound,
	}
	for path, want := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(base+path, nil)
		require.Error(t, err, path)
		require.NotNil(t, resp, path)
		assert.Equal(t, want, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func newSchedulerFeed(t *testing.T) (*itinerary.Scheduler, *Hub, string) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	store := itinerary.NewMemoryStore()
	s := itinerary.NewScheduler(store, nil, nil, store, hub)
	router := httprouter.New()
	handle := WebSocketHandler(hub, s)
	router.GET("/ws/itineraries/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if user := r.URL.Query().Get("as"); user != "" {
			r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, user))
		}
		handle(w, r, ps)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return s, hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/itineraries/"
}

// readOps collects event ops until the server closes the socket.
func readOps(t *testing.T, conn *websocket.Conn) []models.EventOp {
	t.Helper()
	var ops []models.EventOp
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var ev models.ItineraryEvent
		if err := conn.ReadJSON(&ev); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation, websocket.CloseNormalClosure), "unexpected read error: %v", err)
			return ops
		}
		ops = append(ops, ev.Op)
	}
}

func dinner(day int) itinerary.ItemInput {
	return itinerary.ItemInput{
		Category: models.CategoryActivity,
		Title:    "Secret dinner",
		DayIndex: day,
		Start:    time.Date(2024, 3, day, 19, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, day, 21, 0, 0, 0, time.UTC),
	}
}

func TestRemovedCollaboratorIsDisconnected(t *testing.T) {
	ctx := context.Background()
	s, hub, base := newSchedulerFeed(t)
	it, err := s.CreateItinerary(ctx, "alice", itinerary.ItineraryInput{Name: "Gold Country", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)
	_, err = s.AddCollaborator(ctx, "alice", it.ItineraryID, "bob", models.PermissionView)
	require.NoError(t, err)
	_, err = s.AddCollaborator(ctx, "alice", it.ItineraryID, "carol", models.PermissionView)
	require.NoError(t, err)

	bob, _, err := websocket.DefaultDialer.Dial(base+it.ItineraryID+"?as=bob", nil)
	require.NoError(t, err)
	defer bob.Close()
	carol, _, err := websocket.DefaultDialer.Dial(base+it.ItineraryID+"?as=carol", nil)
	require.NoError(t, err)
	defer carol.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(it.ItineraryID) == 2 }, time.Second, 10*time.Millisecond)

	_, err = s.RemoveCollaborator(ctx, "alice", it.ItineraryID, "bob")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "alice", it.ItineraryID, dinner(1))
	require.NoError(t, err)

	assert.Empty(t, readOps(t, bob))
	assert.Eventually(t, func() bool { return hub.Subscribers(it.ItineraryID) == 1 }, 2*time.Second, 10*time.Millisecond)

	carol.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.ItineraryEvent
	require.NoError(t, carol.ReadJSON(&ev))
	assert.Equal(t, models.OpCollaboratorRemove, ev.Op)
	require.NoError(t, carol.ReadJSON(&ev))
	assert.Equal(t, models.OpItemAdded, ev.Op)
}

func TestUnpublishDisconnectsAnonymousViewer(t *testing.T) {
	ctx := context.Background()
	s, hub, base := newSchedulerFeed(t)
	it, err := s.CreateItinerary(ctx, "alice", itinerary.ItineraryInput{Name: "Gold Country", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)
	_, err = s.Publish(ctx, "alice", it.ItineraryID, true)
	require.NoError(t, err)

	anon, _, err := websocket.DefaultDialer.Dial(base+it.ItineraryID, nil)
	require.NoError(t, err)
	defer anon.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(it.ItineraryID) == 1 }, time.Second, 10*time.Millisecond)

	_, err = s.AddItem(ctx, "alice", it.ItineraryID, dinner(2))
	require.NoError(t, err)
	_, err = s.Publish(ctx, "alice", it.ItineraryID, false)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "alice", it.ItineraryID, dinner(3))
	require.NoError(t, err)

	assert.Equal(t, []models.EventOp{models.OpItemAdded}, readOps(t, anon))
	assert.Eventually(t, func() bool { return hub.Subscribers(it.ItineraryID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
