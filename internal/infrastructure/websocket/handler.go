package websocket

import (
	"context"
	"net/http"
	"time"

	"auction-stream/internal/domain"
	"auction-stream/internal/services"
	"auction-stream/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// resolveTimeout caps the advisory identity lookup so a slow session
// store never delays connection establishment noticeably.
const resolveTimeout = 2 * time.Second

// Handler upgrades websocket requests, resolves an optional
// cookie-carried identity, and runs the per-connection read loop
// feeding the protocol state machine.
type Handler struct {
	room     *services.Room
	resolver domain.IdentityResolver
	notifier domain.StreamNotifier
	log      logger.Logger
}

func NewHandler(room *services.Room, resolver domain.IdentityResolver,
	notifier domain.StreamNotifier, log logger.Logger) *Handler {
	return &Handler{
		room:     room,
		resolver: resolver,
		notifier: notifier,
		log:      log,
	}
}

func (h *Handler) HandleConnection(c echo.Context) error {
	identity := h.resolveIdentity(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	conn := NewConnection(ws, h.log)
	session := services.NewClientSession(conn, h.room, h.notifier, identity, h.log)
	h.log.Info("Connection established", "conn_id", conn.ID(), "identity", identity)

	go h.readLoop(conn, session)
	return nil
}

func (h *Handler) resolveIdentity(c echo.Context) string {
	cookie, err := c.Cookie(domain.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), resolveTimeout)
	defer cancel()
	return h.resolver.Resolve(ctx, cookie.Value)
}

// readLoop processes inbound messages strictly in arrival order. Any
// transport error ends the session and runs the disconnect cleanup.
func (h *Handler) readLoop(conn *Connection, session *services.ClientSession) {
	defer func() {
		session.Disconnect()
		if err := conn.Close(); err != nil {
			h.log.Debug("Failed to close connection", "conn_id", conn.ID(), "error", err)
		}
		h.log.Info("Connection closed", "conn_id", conn.ID(), "role", session.Role().String())
	}()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		session.HandleMessage(data)
	}
}
