package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"created", EventTypeCreated, "created"},
		{"deleted", EventTypeDeleted, "deleted"},
		{"totals updated", EventTypeTotalsUpdated, "totals_updated"},
		{"status changed", EventTypeStatusChanged, "status_changed"},
		{"tasks derived", EventTypeTasksDerived, "tasks_derived"},
		{"exported", EventTypeExported, "exported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"quoteId":     1,
		"finalAmount": "9500.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeTotalsUpdated, EntityTypeQuote, payload)
	after := time.Now()

	assert.Equal(t, "quote.totals_updated", evt.Type)
	assert.Equal(t, EntityTypeQuote, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"quoteId":     float64(1),
		"orderNumber": "D202601001",
		"finalAmount": "9500.00",
	}

	evt := Event{
		Type:      "quote.totals_updated",
		Entity:    EntityTypeQuote,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), decodedPayload["quoteId"])
	assert.Equal(t, "D202601001", decodedPayload["orderNumber"])
	assert.Equal(t, "9500.00", decodedPayload["finalAmount"])
}

func TestEvent_ToJSON(t *testing.T) {
	evt := QuoteStatusChanged(42, map[string]interface{}{"from": "to_sign", "to": "signed"})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "quote.status_changed", decoded["type"])
	assert.Equal(t, "quote", decoded["entity"])
	assert.Equal(t, float64(42), decoded["quoteId"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestQuoteEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"quoteId": float64(1)}

	tests := []struct {
		name     string
		event    Event
		expected string
		entity   EntityType
	}{
		{"QuoteCreated", QuoteCreated(1, payload), "quote.created", EntityTypeQuote},
		{"QuoteDeleted", QuoteDeleted(1, payload), "quote.deleted", EntityTypeQuote},
		{"QuoteTotalsUpdated", QuoteTotalsUpdated(1, payload), "quote.totals_updated", EntityTypeQuote},
		{"QuoteStatusChanged", QuoteStatusChanged(1, payload), "quote.status_changed", EntityTypeQuote},
		{"QuoteTasksDerived", QuoteTasksDerived(1, payload), "quote.tasks_derived", EntityTypeQuote},
		{"QuoteExported", QuoteExported(1, payload), "quote.exported", EntityTypeQuote},
		{"RateProfileCreated", RateProfileCreated(payload), "rate_profile.created", EntityTypeRateProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Type)
			assert.Equal(t, tt.entity, tt.event.Entity)
			assert.Equal(t, payload, tt.event.Payload)
			if tt.entity == EntityTypeQuote {
				assert.Equal(t, int32(1), tt.event.QuoteID)
			} else {
				assert.Zero(t, tt.event.QuoteID)
			}
		})
	}
}
