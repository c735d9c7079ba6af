package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"itinera/models"
)

// EventsChannel is the pub/sub channel carrying itinerary change events.
const EventsChannel = "itinerary-events"

// RedisEmitter publishes itinerary events so every API instance can fan
// them out to its own websocket clients.
type RedisEmitter struct {
	conn    redis.UniversalClient
	channel string
}

func NewRedisEmitter(conn redis.UniversalClient) *RedisEmitter {
	return &RedisEmitter{conn: conn, channel: EventsChannel}
}

func (e *RedisEmitter) Emit(ctx context.Context, ev models.ItineraryEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := e.conn.Publish(ctx, e.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}
	log.Printf("[Emit] op=%s itinerary=%s version=%d", ev.Op, ev.ItineraryID, ev.Version)
	return nil
}

// StartFeedWorker forwards published events to deliver until ctx is done.
// It blocks, so callers run it in its own goroutine.
func StartFeedWorker(ctx context.Context, conn redis.UniversalClient, deliver func(models.ItineraryEvent)) {
	sub := conn.Subscribe(ctx, EventsChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Printf("[FeedWorker] Listening on %s", EventsChannel)
	for {
		select {
		case <-ctx.Done():
			log.Println("[FeedWorker] Stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				log.Printf("[FeedWorker] Failed to parse event: %v", err)
				continue
			}
			deliver(ev)
		}
	}
}

func decodeEvent(payload string) (models.ItineraryEvent, error) {
	var ev models.ItineraryEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if ev.ItineraryID == "" {
		return ev, fmt.Errorf("event %q has no itinerary id", ev.EventID)
	}
	return ev, nil
}
