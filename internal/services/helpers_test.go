package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

// fakeConn records every event sent to it, decoded to a generic map so
// tests can assert on the wire shape.
type fakeConn struct {
	id        string
	mu        sync.Mutex
	events    []map[string]interface{}
	failSends bool
	closed    bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) Send(event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failSends {
		return errors.New("send failed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	c.events = append(c.events, decoded)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) sent() []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]interface{}, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) eventTypes() []string {
	var types []string
	for _, e := range c.sent() {
		types = append(types, e["type"].(string))
	}
	return types
}

func (c *fakeConn) eventsOfType(eventType string) []map[string]interface{} {
	var matched []map[string]interface{}
	for _, e := range c.sent() {
		if e["type"] == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func newTestRoom() (*Room, *Registry) {
	log := logger.NewNop()
	registry := NewRegistry(log)
	broadcaster := NewBroadcaster(registry, log)
	return NewRoom(registry, broadcaster, log), registry
}

// fakeNotifier signals each NotifyStreamStarted call on a channel so
// tests can wait for the goroutine without sleeping.
type fakeNotifier struct {
	calls chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan struct{}, 8)}
}

func (n *fakeNotifier) NotifyStreamStarted(ctx context.Context) int {
	n.calls <- struct{}{}
	return 0
}

func (n *fakeNotifier) waitForCall(timeout time.Duration) bool {
	select {
	case <-n.calls:
		return true
	case <-time.After(timeout):
		return false
	}
}

// In-memory collaborator fakes for the auth service.

type fakeVerifier struct {
	claims *domain.GoogleClaims
	err    error
}

func (v *fakeVerifier) Verify(ctx context.Context, credential string) (*domain.GoogleClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
	listed []*domain.User
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) UpsertByGoogleID(ctx context.Context, claims *domain.GoogleClaims) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.GoogleID == claims.Subject {
			u.Email = claims.Email
			u.Name = claims.Name
			u.Picture = claims.Picture
			return u, nil
		}
	}

	r.nextID++
	user := &domain.User{
		ID:       r.nextID,
		GoogleID: claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.listed != nil {
		return r.listed, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*domain.User
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = session
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[token], nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, token)
			purged++
		}
	}
	return purged, nil
}

type fakeSessionCache struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{users: make(map[string]*domain.User)}
}

func (c *fakeSessionCache) SetUser(ctx context.Context, token string, user *domain.User, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[token] = user
	return nil
}

func (c *fakeSessionCache) GetUser(ctx context.Context, token string) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users[token], nil
}

func (c *fakeSessionCache) Delete(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, token)
	return nil
}

// fakeMailer fails for addresses listed in failFor.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func newFakeMailer(failFor ...string) *fakeMailer {
	failures := make(map[string]bool, len(failFor))
	for _, addr := range failFor {
		failures[addr] = true
	}
	return &fakeMailer{failFor: failures}
}

func (m *fakeMailer) SendStreamStarted(to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("smtp rejected")
	}
	m.sent = append(m.sent, to)
	return nil
}
