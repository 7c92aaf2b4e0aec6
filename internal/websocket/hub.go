package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
)

// Event is one message on the admin event stream
type Event struct {
	Type      string            `json:"type"` // binding.updated, binding.seeded
	Timestamp int64             `json:"ts"`   // epoch ms
	Binding   *model.TagBinding `json:"binding,omitempty"`
	Count     int               `json:"count,omitempty"`
}

const (
	EventBindingUpdated = "binding.updated"
	EventBindingSeeded  = "binding.seeded"
)

// Hub manages the connected admin event-stream clients. There is a single
// stream per device, every client sees every binding change.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
	}
}

// Run processes register/unregister/broadcast events until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Event stream client registered", map[string]interface{}{
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Event stream client unregistered", map[string]interface{}{
				"total_clients": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer, drop the message rather than
					// blocking every other client.
					logger.Warn("Dropping event for slow client", nil)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyBindingUpdated broadcasts a binding change to all clients
func (h *Hub) NotifyBindingUpdated(binding *model.TagBinding) {
	h.publish(Event{
		Type:      EventBindingUpdated,
		Timestamp: time.Now().UnixMilli(),
		Binding:   binding,
	})
}

// NotifyBindingsSeeded broadcasts a completed seed batch
func (h *Hub) NotifyBindingsSeeded(count int) {
	h.publish(Event{
		Type:      EventBindingSeeded,
		Timestamp: time.Now().UnixMilli(),
		Count:     count,
	})
}

func (h *Hub) publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Event broadcast queue full, dropping event", map[string]interface{}{
			"type": event.Type,
		})
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
