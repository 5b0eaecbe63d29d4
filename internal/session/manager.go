// Package session gates the admin surface. There is a single configured
// admin identity; this is presence/absence gating, not a customer account
// system.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/kvstore"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Session struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Manager struct {
	store      kvstore.Store
	adminEmail string
	adminHash  []byte
	ttl        time.Duration
}

// New builds a Manager checking credentials against the configured admin
// email and bcrypt password hash.
func New(store kvstore.Store, adminEmail, adminPasswordHash string, ttl time.Duration) *Manager {
	return &Manager{
		store:      store,
		adminEmail: adminEmail,
		adminHash:  []byte(adminPasswordHash),
		ttl:        ttl,
	}
}

// SignIn validates credentials and issues an opaque session token.
func (m *Manager) SignIn(ctx context.Context, email, password string) (string, error) {
	if email != m.adminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.adminHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	record, err := json.Marshal(Session{
		Email:     email,
		ExpiresAt: time.Now().Add(m.ttl).UTC(),
	})
	if err != nil {
		return "", errors.Wrap(err, "encode session")
	}
	if err := m.store.Set(ctx, sessionKey(token), string(record)); err != nil {
		return "", errors.Wrap(err, "persist session")
	}
	return token, nil
}

// Session resolves a token to its session. Expired tokens are dropped on
// lookup and report as absent.
func (m *Manager) Session(ctx context.Context, token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	raw, err := m.store.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, false
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false
	}
	if time.Now().After(s.ExpiresAt) {
		_ = m.store.Delete(ctx, sessionKey(token))
		return nil, false
	}
	return &s, true
}

// SignOut drops the token. Unknown tokens are already signed out.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionKey(token))
}

func sessionKey(token string) string {
	return "session:" + token
}
