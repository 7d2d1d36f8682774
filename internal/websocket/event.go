package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated       EventType = "created"
	EventTypeDeleted       EventType = "deleted"
	EventTypeTotalsUpdated EventType = "totals_updated"
	EventTypeStatusChanged EventType = "status_changed"
	EventTypeTasksDerived  EventType = "tasks_derived"
	EventTypeExported      EventType = "exported"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeQuote       EntityType = "quote"
	EntityTypeRateProfile EntityType = "rate_profile"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, quoteId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`              // Combined type e.g. "quote.totals_updated"
	Entity    EntityType  `json:"entity"`            // Entity type e.g. "quote"
	QuoteID   int32       `json:"quoteId,omitempty"` // Set on quote events, used for subscription filtering
	Payload   interface{} `json:"payload"`           // Event data
	Timestamp time.Time   `json:"timestamp"`         // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// quoteEvent creates an event scoped to a single quote
func quoteEvent(eventType EventType, quoteID int32, payload interface{}) Event {
	e := NewEvent(eventType, EntityTypeQuote, payload)
	e.QuoteID = quoteID
	return e
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// QuoteCreated creates a quote.created event
func QuoteCreated(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeCreated, quoteID, payload)
}

// QuoteDeleted creates a quote.deleted event
func QuoteDeleted(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeDeleted, quoteID, payload)
}

// QuoteTotalsUpdated creates a quote.totals_updated event
func QuoteTotalsUpdated(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeTotalsUpdated, quoteID, payload)
}

// QuoteStatusChanged creates a quote.status_changed event
func QuoteStatusChanged(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeStatusChanged, quoteID, payload)
}

// QuoteTasksDerived creates a quote.tasks_derived event
func QuoteTasksDerived(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeTasksDerived, quoteID, payload)
}

// QuoteExported creates a quote.exported event
func QuoteExported(quoteID int32, payload interface{}) Event {
	return quoteEvent(EventTypeExported, quoteID, payload)
}

// RateProfileCreated creates a rate_profile.created event
func RateProfileCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeRateProfile, payload)
}
