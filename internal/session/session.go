// Package session keeps the signed-in user's backend token and selected device
// on the server, keyed by an opaque id carried in a cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/nulzo/calx-web/internal/store/cache"
	"github.com/nulzo/calx-web/pkg/api"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrTokenExpired = errors.New("backend token already expired")
)

const keyPrefix = "session:"

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      api.User  `json:"user"`
	DeviceID  string    `json:"device_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Info is the token-free view handed to the browser.
func (s *Session) Info() api.SessionInfo {
	return api.SessionInfo{
		ID:        s.ID,
		User:      s.User,
		DeviceID:  s.DeviceID,
		ExpiresAt: s.ExpiresAt,
	}
}

type Manager struct {
	store cache.CacheService
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store cache.CacheService, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Create starts a session for a freshly issued backend token. The session
// never outlives the token's exp claim.
func (m *Manager) Create(ctx context.Context, token string, user api.User) (*Session, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)

	if exp, ok := tokenExpiry(token); ok {
		if !exp.After(now) {
			return nil, ErrTokenExpired
		}
		if exp.Before(expires) {
			expires = exp
		}
	}

	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var s Session
	if err := m.store.Get(ctx, keyPrefix+id, &s); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, keyPrefix+id)
		return nil, ErrNotFound
	}
	return &s, nil
}

// SetDevice makes deviceID the current device of the session.
func (m *Manager) SetDevice(ctx context.Context, id, deviceID string) (*Session, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.DeviceID = deviceID
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	if err := m.store.Set(ctx, keyPrefix+s.ID, s, ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// tokenExpiry reads exp without verifying the signature; the backend owns
// the key and remains the one that validates the token.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
