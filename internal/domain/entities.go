package domain

import (
	"encoding/json"
	"time"
)

// Role of a connection within the room. Set by the first join message
// and kept until disconnect.
type Role int

const (
	RoleUnassigned Role = iota
	RoleStreamer
	RoleViewer
)

func (r Role) String() string {
	switch r {
	case RoleStreamer:
		return "streamer"
	case RoleViewer:
		return "viewer"
	default:
		return "unassigned"
	}
}

// DefaultUsername is used when neither a resolved identity nor any
// client-supplied name is available.
const DefaultUsername = "Anonymous"

// SessionCookieName carries the session token on page and websocket
// requests.
const SessionCookieName = "session_token"

// ChatMessage is an immutable entry in the room's chat history.
type ChatMessage struct {
	Username string
	Text     string
}

// BidRecord is an immutable entry in the room's bid history.
type BidRecord struct {
	Username string
	Amount   int
}

type User struct {
	ID        int64
	GoogleID  string
	Email     string
	Name      string
	Picture   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// GoogleClaims is the identity yielded by a verified sign-in credential.
type GoogleClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Inbound message types.
const (
	MessageJoin        = "join"
	MessageFrame       = "frame"
	MessageChat        = "chat"
	MessageBid         = "bid"
	MessageBuyNow      = "buy_now"
	MessageSetUsername = "set_username"
)

// ClientMessage is the inbound wire envelope. Fields are populated
// depending on Type; Amount stays a json.Number so non-integer bids can
// be rejected after decoding.
type ClientMessage struct {
	Type     string      `json:"type"`
	Role     string      `json:"role,omitempty"`
	Username string      `json:"username,omitempty"`
	Text     string      `json:"text,omitempty"`
	Data     string      `json:"data,omitempty"`
	Amount   json.Number `json:"amount,omitempty"`
}
