package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
	"github.com/gokatarajesh/mentors-mantra/pkg/http/ws"
)

// TokenValidator checks access tokens presented on the upgrade request.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// WSHandler streams the countdown of one session to its owner.
type WSHandler struct {
	manager     *Manager
	broadcaster *CountdownBroadcaster
	hub         *ws.Hub
	tokens      TokenValidator
	upgrader    *websocket.Upgrader
	logger      zerolog.Logger
}

func NewWSHandler(manager *Manager, broadcaster *CountdownBroadcaster, hub *ws.Hub, tokens TokenValidator, upgrader *websocket.Upgrader, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		manager:     manager,
		broadcaster: broadcaster,
		hub:         hub,
		tokens:      tokens,
		upgrader:    upgrader,
		logger:      logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket handles GET /ws/sessions/{id}?token=
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.manager.Get(r.Context(), id, claims.StudentID); err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger.With().Str("session_id", id).Logger())
	h.hub.Subscribe(id, conn)
	go conn.WritePump()

	h.broadcaster.Push(r.Context(), id)

	conn.ReadPump(func(msg ws.Message) error {
		if msg.Type != ws.TypePing {
			return nil
		}
		pong := ws.Message{Type: ws.TypePong, RequestID: msg.RequestID}
		return conn.Send(pong)
	})
	h.hub.Unsubscribe(id, conn)
}
