package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans meetup lifecycle events out to websocket watchers. With a redis
// client attached, events also cross process boundaries via pub/sub.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	MeetupID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(meetupID string) *Client {
	client := &Client{
		MeetupID: meetupID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[meetupID] == nil {
		h.clients[meetupID] = map[*Client]struct{}{}
	}
	h.clients[meetupID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watchers, ok := h.clients[client.MeetupID]; ok {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.clients, client.MeetupID)
		}
	}
	close(client.Send)
}

// Broadcast delivers to local watchers and publishes for other instances.
func (h *Hub) Broadcast(meetupID string, payload []byte) {
	h.deliver(meetupID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(meetupID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// deliver sends under the read lock. Unregister closes Send only while
// holding the write lock, so a send here never hits a closed channel.
// Sends never block; a watcher with a full buffer drops the event.
func (h *Hub) deliver(meetupID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[meetupID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "meetups:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(meetupIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(meetupID string) string {
	return "meetups:" + meetupID + ":events"
}

func meetupIDFromChannel(ch string) string {
	// meetups:{meetup}:events
	const prefix = "meetups:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
