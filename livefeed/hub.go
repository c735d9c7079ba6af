package livefeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"itinera/models"
)

// Client is one websocket subscriber of an itinerary's change feed.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
	// Authorize re-checks read access; nil means always allowed.
	Authorize func(ctx context.Context) error
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans itinerary events out to the clients watching that itinerary.
// Rooms are keyed by itinerary ID.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					// slow consumer
					h.drop(c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes c and closes its send channel once. Callers hold mu.
func (h *Hub) drop(c *Client) {
	conns := h.rooms[c.Room]
	if !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Subscribers reports how many clients watch an itinerary.
func (h *Hub) Subscribers(itineraryID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[itineraryID])
}

// Publish queues an event for the clients of its itinerary.
func (h *Hub) Publish(ev models.ItineraryEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[LiveFeed] Failed to marshal event %s: %v", ev.EventID, err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{Room: ev.ItineraryID, Data: data}:
	case <-h.quit:
	}
}

// Emit lets the hub act as the scheduler's emitter on a single instance.
func (h *Hub) Emit(_ context.Context, ev models.ItineraryEvent) error {
	h.Publish(ev)
	return nil
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
