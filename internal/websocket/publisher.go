package websocket

import "github.com/rs/zerolog/log"

// EventPublisher carries quote and rate profile events to the clients of a workspace.
// Services hold it instead of the Hub so they can run without WebSocket transport.
type EventPublisher interface {
	// Publish delivers the event to the workspace; quote events only reach the clients
	// watching that quote
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish broadcasts the event to the workspace.
// A quote event without its quote ID cannot be routed to subscribers and is dropped.
func (h *Hub) Publish(workspaceID int32, event Event) {
	if event.Entity == EntityTypeQuote && event.QuoteID == 0 {
		log.Warn().
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Dropping quote event without quote ID")
		return
	}
	h.Broadcast(workspaceID, event)
}
