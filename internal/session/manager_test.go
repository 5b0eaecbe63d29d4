package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/kvstore"
)

func testManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return New(kvstore.NewMemory(), "admin@example.com", string(hash), ttl)
}

func TestSignIn_RejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t, time.Hour)

	if _, err := mgr.SignIn(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := mgr.SignIn(ctx, "other@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignIn_IssuesResolvableToken(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t, time.Hour)

	token, err := mgr.SignIn(ctx, "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	s, ok := mgr.Session(ctx, token)
	if !ok || s.Email != "admin@example.com" {
		t.Fatalf("Session = %+v, %v", s, ok)
	}

	if err := mgr.SignOut(ctx, token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, ok := mgr.Session(ctx, token); ok {
		t.Fatal("session should be gone after sign-out")
	}
}

func TestSession_ExpiredTokenDropped(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t, -time.Minute)

	token, err := mgr.SignIn(ctx, "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, ok := mgr.Session(ctx, token); ok {
		t.Fatal("expired session must not resolve")
	}
	// Second lookup hits the deleted record path.
	if _, ok := mgr.Session(ctx, token); ok {
		t.Fatal("expired session must stay gone")
	}
}
