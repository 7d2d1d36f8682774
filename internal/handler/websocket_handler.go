package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTValidator validates JWT tokens and returns the workspace ID
type JWTValidator interface {
	ValidateToken(token string) (workspaceID int32, err error)
}

// WebSocketHandler upgrades authenticated connections and attaches them to the hub
type WebSocketHandler struct {
	hub            *websocket.Hub
	validator      JWTValidator
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles GET /ws?token=<jwt>[&quoteId=<id>].
// With quoteId the connection starts subscribed to that quote only; clients
// can change subscriptions later with subscribe/unsubscribe messages.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return NewUnauthorizedError(c, "Missing token")
	}

	var quoteID int32
	if raw := c.QueryParam("quoteId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || id <= 0 {
			return NewValidationError(c, "Invalid quote ID", nil)
		}
		quoteID = int32(id)
	}

	workspaceID, err := h.validator.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return NewUnauthorizedError(c, "Invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, workspaceID, h.hub)
	if quoteID != 0 {
		// Cannot fail on a fresh client with a positive ID
		_ = client.Subscribe(quoteID)
	}
	h.hub.Register(client)

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", quoteID).
		Str("client_id", client.ID()).
		Int("connected", h.hub.TotalClientCount()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
