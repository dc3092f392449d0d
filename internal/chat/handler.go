package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated HTTP requests to relay connections.
type Handler struct {
	relay    *Relay
	hub      *Hub
	presence *Presence
	tokens   *auth.TokenIssuer
	log      zerolog.Logger
}

func NewHandler(relay *Relay, hub *Hub, presence *Presence, tokens *auth.TokenIssuer, log zerolog.Logger) *Handler {
	return &Handler{relay: relay, hub: hub, presence: presence, tokens: tokens, log: log}
}

// Serve handles GET /ws. The token comes from the Authorization header or,
// for browser websocket clients that cannot set headers, a query parameter.
func (h *Handler) Serve(c echo.Context) error {
	token := tokenFromRequest(c.Request())
	if token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
	}
	ident, err := h.tokens.Parse(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := NewClient(ident, conn)
	h.hub.Add(client)
	if h.presence != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		if err := h.presence.Online(ctx, ident); err != nil {
			h.log.Warn().Err(err).Msg("presence online failed")
		}
		cancel()
	}
	h.log.Info().Str("client", client.ID).Str("identity", ident.String()).Msg("websocket connected")
	client.Start(h.relay)
	return nil
}

func tokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}
