package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(1, QuoteCreated(42, nil))

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	messages := client.GetMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, string(messages[0]), `"quoteId":42`)
}

func TestHub_Publish_DropsQuoteEventWithoutQuoteID(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", 1)
	hub.Register(client)

	hub.Publish(1, QuoteTotalsUpdated(0, map[string]string{"totalAmount": "0.00"}))
	time.Sleep(10 * time.Millisecond)

	assert.Empty(t, client.GetMessages())
}

func TestHub_Publish_RateProfileEventsReachWorkspace(t *testing.T) {
	hub := NewHub()
	inWorkspace := newMockClient("client-1", 1)
	elsewhere := newMockClient("client-2", 2)
	hub.Register(inWorkspace)
	hub.Register(elsewhere)

	hub.Publish(1, RateProfileCreated(map[string]interface{}{"id": 3, "name": "Developer"}))
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, inWorkspace.GetMessages(), 1)
	assert.Empty(t, elsewhere.GetMessages())
}
