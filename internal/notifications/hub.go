package notifications

import (
	"context"
	"log/slog"
	"sync"

	"homestash/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Conn is the subset of a websocket connection the hub needs. Tests
// substitute an in-memory recorder.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

const textMessage = 1

// Hub tracks connected event-feed clients and broadcasts raw event
// payloads to all of them.
type Hub struct {
	mu      sync.Mutex
	clients map[Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]struct{})}
}

// Register adds a client connection to the broadcast set.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a client connection.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a payload to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(textMessage, payload); err != nil {
			delete(h.clients, c)
		}
	}
}

// StartWiring subscribes to the Redis events channel and relays every
// message to the hub until the context is canceled. With no Redis it
// returns immediately; local connections then receive nothing, which is
// fine for single-node deployments without a cache.
func (h *Hub) StartWiring(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	sub := rdb.Subscribe(ctx, EventsChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					observability.Logger.Warn("Event subscription closed",
						slog.String("channel", EventsChannel))
					return
				}
				h.Broadcast([]byte(msg.Payload))
			}
		}
	}()
}
