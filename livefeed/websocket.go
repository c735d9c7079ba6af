package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"itinera/itinerary"
	"itinera/models"
	"itinera/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Reader is the read-permission check done before a client may subscribe.
type Reader interface {
	GetItinerary(ctx context.Context, userID, id string) (*models.Itinerary, error)
}

// WebSocketHandler upgrades GET /ws/itineraries/:id for callers allowed to
// read the itinerary. The feed is server to client only.
func WebSocketHandler(hub *Hub, reader Reader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		userID := utils.GetUserIDFromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		_, err := reader.GetItinerary(ctx, userID, id)
		cancel()
		if err != nil {
			refuse(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("[LiveFeed] upgrade:", err)
			return
		}
		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 32),
			Room:   id,
			UserID: userID,
			Authorize: func(ctx context.Context) error {
				_, err := reader.GetItinerary(ctx, userID, id)
				return err
			},
		}
		if !hub.join(client) {
			conn.Close()
			return
		}
		go writePump(client)
		go readPump(client, hub)
	}
}

func refuse(w http.ResponseWriter, err error) {
	var denied *itinerary.PermissionDeniedError
	switch {
	case errors.As(err, &denied) && denied.UserID == "":
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &denied):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, itinerary.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[LiveFeed] access check failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to open feed")
	}
}

// revokingOps are the events after which a subscriber may have lost read
// access.
var revokingOps = map[models.EventOp]bool{
	models.OpCollaboratorRemove: true,
	models.OpItineraryUpdated:   true,
	models.OpItineraryDeleted:   true,
}

// stillAllowed re-runs the read check when msg is an access-changing event.
// A deleted itinerary still gets its final event delivered.
func stillAllowed(c *Client, msg []byte) (deliver, keepOpen bool) {
	var ev struct {
		Op models.EventOp `json:"op"`
	}
	if c.Authorize == nil || json.Unmarshal(msg, &ev) != nil || !revokingOps[ev.Op] {
		return true, true
	}
	if ev.Op == models.OpItineraryDeleted {
		return true, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Authorize(ctx); err != nil {
		log.Printf("[LiveFeed] Closing feed of %s for %q: %v", c.Room, c.UserID, err)
		return false, false
	}
	return true, true
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			deliver, keepOpen := stillAllowed(c, msg)
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if deliver {
				if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
			if !keepOpen {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "feed closed"))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; inbound messages are ignored.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
