package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"

	"github.com/google/uuid"
)

// AuthService glues credential verification, user persistence, and
// session minting together. Session resolution is cache-first with a
// MySQL fallback and cache backfill.
type AuthService struct {
	verifier   domain.CredentialVerifier
	users      domain.UserRepository
	sessions   domain.SessionRepository
	cache      domain.SessionCache
	sessionTTL time.Duration
	log        logger.Logger
}

func NewAuthService(
	verifier domain.CredentialVerifier,
	users domain.UserRepository,
	sessions domain.SessionRepository,
	cache domain.SessionCache,
	sessionTTL time.Duration,
	log logger.Logger,
) *AuthService {
	return &AuthService{
		verifier:   verifier,
		users:      users,
		sessions:   sessions,
		cache:      cache,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

// Login verifies the credential, upserts the user, and mints a session.
func (s *AuthService) Login(ctx context.Context, credential string) (*domain.User, *domain.Session, error) {
	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, nil, fmt.Errorf("verify credential: %w", err)
	}

	user, err := s.users.UpsertByGoogleID(ctx, claims)
	if err != nil {
		return nil, nil, fmt.Errorf("upsert user: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		Token:     strings.ReplaceAll(uuid.New().String(), "-", ""),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.cache.SetUser(ctx, session.Token, user, s.sessionTTL); err != nil {
		s.log.Warn("Failed to cache session", "error", err)
	}

	s.log.Info("User logged in", "user_id", user.ID, "email", user.Email)
	return user, session, nil
}

// Logout drops the session from cache and store.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, token); err != nil {
		s.log.Warn("Failed to evict cached session", "error", err)
	}
	return s.sessions.Delete(ctx, token)
}

// ResolveUser returns the user bound to a session token, or (nil, nil)
// when the token is unknown or expired.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (*domain.User, error) {
	cached, err := s.cache.GetUser(ctx, token)
	if err != nil {
		s.log.Warn("Session cache lookup failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	if remaining := time.Until(session.ExpiresAt); remaining > 0 {
		if err := s.cache.SetUser(ctx, token, user, remaining); err != nil {
			s.log.Warn("Failed to backfill session cache", "error", err)
		}
	}
	return user, nil
}

// Resolve implements domain.IdentityResolver for the websocket layer.
// Purely advisory: any failure yields an empty name.
func (s *AuthService) Resolve(ctx context.Context, token string) string {
	user, err := s.ResolveUser(ctx, token)
	if err != nil {
		s.log.Warn("Session resolution failed", "error", err)
		return ""
	}
	if user == nil {
		return ""
	}
	return user.Name
}
