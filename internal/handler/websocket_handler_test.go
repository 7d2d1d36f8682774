package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTValidator is a test double for JWT validation
type mockJWTValidator struct {
	workspaceID int32
	err         error
}

func (m *mockJWTValidator) ValidateToken(token string) (workspaceID int32, err error) {
	return m.workspaceID, m.err
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://atelier.app"}

func TestWebSocketHandler_HandleWS_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		validator  *mockJWTValidator
		wantStatus int
	}{
		{"missing token", "/ws", &mockJWTValidator{workspaceID: 1}, http.StatusUnauthorized},
		{"invalid token", "/ws?token=invalid-jwt", &mockJWTValidator{err: errors.New("invalid token")}, http.StatusUnauthorized},
		{"invalid quote id", "/ws?token=valid-jwt&quoteId=abc", &mockJWTValidator{workspaceID: 1}, http.StatusBadRequest},
		{"zero quote id", "/ws?token=valid-jwt&quoteId=0", &mockJWTValidator{workspaceID: 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h := NewWebSocketHandler(websocket.NewHub(), tt.validator, testAllowedOrigins)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, h.HandleWS(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var problem ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantStatus, problem.Status)
		})
	}
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	h := NewWebSocketHandler(websocket.NewHub(), &mockJWTValidator{workspaceID: 42}, testAllowedOrigins)

	// Valid token but not a WebSocket upgrade request
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// gorilla/websocket fails the upgrade after auth passed
	assert.Error(t, err)
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &mockJWTValidator{workspaceID: 1}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://atelier.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, h.checkOrigin(req))
		})
	}
}

func TestWebSocketHandler_QuoteSubscription(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, &mockJWTValidator{workspaceID: 3}, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	server := httptest.NewServer(e)
	defer server.Close()
	defer hub.Shutdown()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=valid-jwt&quoteId=12"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(3) == 1 }, time.Second, 5*time.Millisecond)

	// Another quote of the workspace is filtered out, the subscribed one arrives
	hub.Publish(3, websocket.QuoteTotalsUpdated(99, map[string]string{"finalAmount": "10.00"}))
	hub.Publish(3, websocket.QuoteTotalsUpdated(12, map[string]string{"finalAmount": "5580.00"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event websocket.Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "quote.totals_updated", event.Type)
	assert.Equal(t, int32(12), event.QuoteID)
}
