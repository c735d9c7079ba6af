package models

import "time"

type EventOp string

const (
	OpItineraryCreated   EventOp = "itinerary.created"
	OpItineraryUpdated   EventOp = "itinerary.updated"
	OpItineraryDeleted   EventOp = "itinerary.deleted"
	OpCollaboratorAdded  EventOp = "collaborator.added"
	OpCollaboratorRemove EventOp = "collaborator.removed"
	OpItemAdded          EventOp = "item.added"
	OpItemUpdated        EventOp = "item.updated"
	OpItemMoved          EventOp = "item.moved"
	OpItemDeleted        EventOp = "item.deleted"
)

// ItineraryEvent is emitted once per successful mutation. Item carries the
// post-mutation snapshot for add/update/move and is nil otherwise.
type ItineraryEvent struct {
	EventID     string    `json:"event_id"`
	ItineraryID string    `json:"itineraryid"`
	ItemID      string    `json:"itemid,omitempty"`
	Op          EventOp   `json:"op"`
	ActorID     string    `json:"actor_id"`
	Version     int64     `json:"version"`
	At          time.Time `json:"at"`
	Item        *Item     `json:"item,omitempty"`
}
