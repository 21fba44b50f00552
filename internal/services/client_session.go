package services

import (
	"context"
	"encoding/json"
	"strings"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

// ClientSession is the per-connection protocol state machine. It
// interprets inbound messages against the connection's role and the
// room state. All methods are called from the connection's read loop
// only, so the session itself needs no locking.
//
// Malformed payloads and protocol violations are ignored without
// feedback; the protocol has no error channel.
type ClientSession struct {
	conn     domain.Connection
	room     *Room
	notifier domain.StreamNotifier
	log      logger.Logger

	role domain.Role
	name string
	// pinned marks the name as authoritative: set when a cookie identity
	// was resolved at connect time, or after an explicit set_username.
	// Pinned names win over per-message username fields.
	pinned bool
}

func NewClientSession(conn domain.Connection, room *Room, notifier domain.StreamNotifier,
	identityName string, log logger.Logger) *ClientSession {
	s := &ClientSession{
		conn:     conn,
		room:     room,
		notifier: notifier,
		log:      log,
	}
	if identityName != "" {
		s.name = identityName
		s.pinned = true
	}
	return s
}

func (s *ClientSession) Role() domain.Role {
	return s.role
}

// HandleMessage dispatches one inbound payload. Unparseable payloads
// and unknown types are dropped; the connection stays open.
func (s *ClientSession) HandleMessage(data []byte) {
	var msg domain.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case domain.MessageJoin:
		s.handleJoin(msg)
	case domain.MessageFrame:
		s.handleFrame(msg)
	case domain.MessageChat:
		s.handleChat(msg)
	case domain.MessageBid:
		s.handleBid(msg)
	case domain.MessageBuyNow:
		s.room.BuyNow(s.displayName(msg.Username))
	case domain.MessageSetUsername:
		s.handleSetUsername(msg)
	}
}

// handleJoin assigns the role on first join. A repeat join keeps the
// existing role and just re-runs the join side effects as an idempotent
// re-sync.
func (s *ClientSession) handleJoin(msg domain.ClientMessage) {
	if s.role == domain.RoleUnassigned {
		if msg.Role == "streamer" {
			s.role = domain.RoleStreamer
		} else {
			s.role = domain.RoleViewer
		}
	}
	if !s.pinned && msg.Username != "" {
		s.name = msg.Username
	}

	if s.role == domain.RoleStreamer {
		wasLive := s.room.JoinStreamer(s.conn)
		if !wasLive && s.notifier != nil {
			go s.notifier.NotifyStreamStarted(context.Background())
		}
		return
	}
	s.room.JoinViewer(s.conn, s.displayName(msg.Username))
}

func (s *ClientSession) handleFrame(msg domain.ClientMessage) {
	if s.role != domain.RoleStreamer || msg.Data == "" {
		return
	}
	s.room.Frame(msg.Data)
}

func (s *ClientSession) handleChat(msg domain.ClientMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	s.room.Chat(s.displayName(msg.Username), text)
}

func (s *ClientSession) handleBid(msg domain.ClientMessage) {
	if msg.Amount == "" {
		return
	}
	amount, err := msg.Amount.Int64()
	if err != nil {
		return
	}
	s.room.PlaceBid(s.displayName(msg.Username), int(amount))
}

func (s *ClientSession) handleSetUsername(msg domain.ClientMessage) {
	name := strings.TrimSpace(msg.Username)
	if name == "" {
		return
	}
	s.name = name
	s.pinned = true
	if s.role == domain.RoleViewer {
		s.room.RenameViewer(s.conn, name)
	}
}

// Disconnect runs the transport-level cleanup. An unjoined connection
// takes the viewer path, which is an idempotent no-op plus a
// viewer-count broadcast.
func (s *ClientSession) Disconnect() {
	if s.role == domain.RoleStreamer {
		s.room.LeaveStreamer(s.conn)
		return
	}
	s.room.LeaveViewer(s.conn)
}

// displayName resolves the effective username: a pinned
// identity/explicit name wins, then the per-message field, then the
// join-time name, then the default.
func (s *ClientSession) displayName(msgUsername string) string {
	if s.pinned {
		return s.name
	}
	if msgUsername != "" {
		return msgUsername
	}
	if s.name != "" {
		return s.name
	}
	return domain.DefaultUsername
}
