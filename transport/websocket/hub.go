package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/connectn-backend/internal/usecase"
)

// Hub tracks live connections by handle and delivers coordinator events to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "ws_hub"),
		clients: make(map[string]*Client),
	}
}

func (that *Hub) register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.handle] = client
}

func (that *Hub) unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[client.handle]; ok && current == client {
		delete(that.clients, client.handle)
	}
}

func (that *Hub) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// Publish encodes the event once and queues it for every connected recipient.
// Recipients whose connection is gone are skipped.
func (that *Hub) Publish(_ context.Context, event usecase.Event) {
	if len(event.Recipients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event.Name, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, handle := range event.Recipients {
		client, ok := that.clients[handle]
		if !ok {
			continue
		}

		if !client.enqueue(data) {
			that.logger.Warn("dropping event for slow client", "handle", handle, "event", event.Name)
		}
	}
}

// send writes a gateway reply to a single connection.
func (that *Hub) send(handle string, reply Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		that.logger.Error("failed to marshal reply", "event", reply.Event, "error", err)
		return
	}

	that.mu.RLock()
	client, ok := that.clients[handle]
	that.mu.RUnlock()

	if ok {
		client.enqueue(data)
	}
}

// Close drops every connection.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for handle, client := range that.clients {
		client.close()
		delete(that.clients, handle)
	}
}
