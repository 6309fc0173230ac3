package events

import (
	"net/http"
	"spy-game/internal/constants"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const WebsocketPath = "/ws/{sessionID}"

// SessionLookup reports whether a session exists.
type SessionLookup interface {
	Exists(sessionID string) bool
}

type Handler struct {
	hub      *Hub
	sessions SessionLookup
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(hub *Hub, sessions SessionLookup, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if sessionID == "" || !h.sessions.Exists(sessionID) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}

	events, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	logger := h.logger.With().Str("session_id", sessionID).Str("remote_addr", r.RemoteAddr).Logger()
	logger.Info().Msg("event stream opened")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	h.writeLoop(conn, events, done, logger)
	conn.Close()
	logger.Info().Msg("event stream closed")
}

// readLoop discards client frames and signals done when the peer goes away.
func (h *Handler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(2 * constants.WebsocketPingPeriod))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * constants.WebsocketPingPeriod))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, events <-chan Event, done <-chan struct{}, logger zerolog.Logger) {
	ping := time.NewTicker(constants.WebsocketPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(constants.WebsocketWriteWait))
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "unsubscribed")
				conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug().Err(err).Msg("event write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WebsocketWriteWait)); err != nil {
				logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
