package domain

import (
	"context"
	"time"
)

// Connection is a bidirectional event channel to one client. Send must
// never block behind a slow receiver; a send failure marks the
// connection dead.
type Connection interface {
	ID() string
	Send(event interface{}) error
	Close() error
}

// Repository interfaces
type UserRepository interface {
	UpsertByGoogleID(ctx context.Context, claims *GoogleClaims) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	// Get returns (nil, nil) when no session exists for the token.
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Cache interfaces
type SessionCache interface {
	SetUser(ctx context.Context, token string, user *User, ttl time.Duration) error
	// GetUser returns (nil, nil) on a cache miss.
	GetUser(ctx context.Context, token string) (*User, error)
	Delete(ctx context.Context, token string) error
}

// CredentialVerifier validates an opaque sign-in credential with the
// identity provider.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*GoogleClaims, error)
}

// IdentityResolver maps a cookie-carried session token to a display
// name at connection time. Advisory only: an empty string means no
// identity, and a lookup failure must never reject the connection.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) string
}

// StreamNotifier announces a newly started stream to registered users.
// Returns the number of successfully delivered notifications.
type StreamNotifier interface {
	NotifyStreamStarted(ctx context.Context) int
}

// Mailer delivers a single stream-started email.
type Mailer interface {
	SendStreamStarted(to, name string) error
}
