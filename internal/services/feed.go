package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/dwellio/dwellio-backend/internal/database"
)

// Listing feed event types.
const (
	FeedEventCreated = "listing_created"
	FeedEventUpdated = "listing_updated"
)

// FeedChannel is the Redis Pub/Sub channel for listing events.
const FeedChannel = "listings:feed"

// ListingEvent is the payload broadcast over Redis and WebSocket whenever
// an active listing is created or updated.
type ListingEvent struct {
	Type         string    `json:"type"`
	PropertyID   string    `json:"property_id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	PropertyType string    `json:"property_type"`
	ListingType  string    `json:"listing_type"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Timestamp    time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// feedHub is a registry of connected feed clients.
type feedHub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]FeedConn
}

var (
	hub         = &feedHub{clients: make(map[int]FeedConn)}
	feedStarted sync.Once
)

// RegisterFeedConn adds a connection to the hub and returns its unregister func.
func RegisterFeedConn(conn FeedConn) func() {
	hub.mu.Lock()
	hub.nextID++
	id := hub.nextID
	hub.clients[id] = conn
	hub.mu.Unlock()

	return func() {
		hub.mu.Lock()
		delete(hub.clients, id)
		hub.mu.Unlock()
	}
}

// FanOutListingEvent sends an event to every connected client.
func FanOutListingEvent(event ListingEvent) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, conn := range hub.clients {
		// Non-blocking best-effort send.
		go func(c FeedConn) {
			if err := c.WriteJSON(event); err != nil {
				log.Printf("error writing listing event to websocket: %v", err)
			}
		}(conn)
	}
}

// PublishListingEvent publishes an event to Redis; called after a listing
// is created or updated. Best-effort: callers log and move on.
func PublishListingEvent(ctx context.Context, event ListingEvent) error {
	if database.RedisClient == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, FeedChannel, data).Err()
}

// StartListingFeedSubscriber ensures a single shared Redis listener per instance.
func StartListingFeedSubscriber(ctx context.Context) {
	feedStarted.Do(func() {
		go runFeedSubscriber(ctx)
	})
}

func runFeedSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; listing feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, FeedChannel)
			defer pubsub.Close()

			log.Println("✅ Listing feed Redis subscriber started (channel: " + FeedChannel + ")")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ListingEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal listing event: %v", err)
					continue
				}

				FanOutListingEvent(event)
			}
		}()
	}
}
