package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	// Watches reports whether the client wants events about the given quote
	Watches(quoteID int32) bool
	Send(data []byte) error
	Close() error
}

// Hub fans quote events out to the connections of a workspace.
// It is safe for concurrent use.
type Hub struct {
	// workspaces maps workspace ID to a map of client ID to client
	workspaces map[int32]map[string]ClientInterface
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its workspace
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	if h.workspaces[workspaceID] == nil {
		h.workspaces[workspaceID] = make(map[string]ClientInterface)
	}
	h.workspaces[workspaceID][client.ID()] = client

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	clients, ok := h.workspaces[workspaceID]
	if !ok {
		return
	}
	if _, exists := clients[client.ID()]; !exists {
		return
	}

	delete(clients, client.ID())
	if len(clients) == 0 {
		delete(h.workspaces, workspaceID)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
}

// recipients returns the clients of a workspace interested in the event
func (h *Hub) recipients(workspaceID int32, event Event) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.workspaces[workspaceID]
	out := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		if event.QuoteID != 0 && !client.Watches(event.QuoteID) {
			continue
		}
		out = append(out, client)
	}
	return out
}

// Broadcast sends an event to the clients of a workspace. Quote events only
// reach clients that watch the quote; clients without subscriptions watch all.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	clients := h.recipients(workspaceID, event)
	if len(clients) == 0 {
		return
	}

	for _, client := range clients {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("workspace_id", workspaceID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", event.QuoteID).
		Str("event_type", event.Type).
		Int("client_count", len(clients)).
		Msg("Broadcast event")
}

// Shutdown closes every registered client and empties the hub
func (h *Hub) Shutdown() {
	h.mu.Lock()
	all := make([]ClientInterface, 0)
	for _, clients := range h.workspaces {
		for _, client := range clients {
			all = append(all, client)
		}
	}
	h.workspaces = make(map[int32]map[string]ClientInterface)
	h.mu.Unlock()

	for _, client := range all {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", client.ID()).Msg("Error closing WebSocket client")
		}
	}
	log.Info().Int("clients", len(all)).Msg("WebSocket hub shut down")
}

// ClientCount returns the number of clients connected to a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

// TotalClientCount returns the total number of connected clients across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}
