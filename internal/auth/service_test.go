package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgauth.dev/internal/events"
)

// fakeUsers is the minimal user directory the service needs.
type fakeUsers struct {
	users map[string]User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.users[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func newTestService(t *testing.T, ttl time.Duration) (*Service, *TokenStore) {
	t.Helper()
	hasher := SaltedSHA256Hasher{Salt: "test"}
	hash, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &fakeUsers{users: map[string]User{
		"alice@x.com": {
			Email:          "alice@x.com",
			PasswordHash:   hash,
			Role:           RoleUser,
			OrganizationID: "org1",
		},
	}}
	store := NewTokenStore(ttl)
	svc, err := NewService(store, users, hasher)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestIssueTokenSuccess(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	tok, err := svc.IssueToken(context.Background(), "Alice@X.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if tok.ID == "" {
		t.Fatal("token id must be set")
	}
	if tok.CreatedAt.IsZero() {
		t.Fatal("token creation time must be set")
	}
	if tok.User.Email != "alice@x.com" {
		t.Fatalf("unexpected user snapshot: %s", tok.User.Email)
	}
	if tok.User.Role != RoleUser || tok.User.OrganizationID != "org1" {
		t.Fatalf("snapshot lost role or organization: %+v", tok.User)
	}

	got, ok := svc.GetToken(context.Background(), tok.ID)
	if !ok {
		t.Fatal("issued token must resolve")
	}
	if got.User.Email != tok.User.Email {
		t.Fatalf("resolved session differs: %s", got.User.Email)
	}
}

func TestIssueTokenUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	_, err := svc.IssueToken(context.Background(), "bob@x.com", "secret")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIssueTokenWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	_, err := svc.IssueToken(context.Background(), "alice@x.com", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIssueTokenReturnsSameLiveToken(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	first, err := svc.IssueToken(context.Background(), "alice@x.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	second, err := svc.IssueToken(context.Background(), "alice@x.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("repeated login minted a second token: %s vs %s", first.ID, second.ID)
	}
}

func TestInvalidateUser(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	tok, err := svc.IssueToken(context.Background(), "alice@x.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	svc.InvalidateUser(context.Background(), "ALICE@x.com")
	if _, ok := svc.GetToken(context.Background(), tok.ID); ok {
		t.Fatal("invalidated token must not resolve")
	}

	// Idempotent: a second invalidation changes nothing and never errors.
	svc.InvalidateUser(context.Background(), "alice@x.com")
}

func TestResolve(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	tok, err := svc.IssueToken(context.Background(), "alice@x.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	session, err := svc.Resolve(context.Background(), tok.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if session.TokenID != tok.ID || session.User.Email != "alice@x.com" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if _, err := svc.Resolve(context.Background(), "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestServicePublishesLifecycleEvents(t *testing.T) {
	hasher := SaltedSHA256Hasher{Salt: "test"}
	hash, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &fakeUsers{users: map[string]User{
		"alice@x.com": {Email: "alice@x.com", PasswordHash: hash, Role: RoleUser},
	}}
	bus := events.NewBus()
	svc, err := NewService(NewTokenStore(time.Minute), users, hasher, WithEventBus(bus))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Subscribe(ctx)

	next := func() events.Event {
		t.Helper()
		select {
		case evt := <-ch:
			return evt
		case <-time.After(time.Second):
			t.Fatal("no event published")
			return events.Event{}
		}
	}

	if _, err := svc.IssueToken(ctx, "alice@x.com", "secret"); err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if evt := next(); evt.Type != events.TokenIssued || evt.Email != "alice@x.com" {
		t.Fatalf("unexpected event: %+v", evt)
	}

	if _, err := svc.IssueToken(ctx, "alice@x.com", "secret"); err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if evt := next(); evt.Type != events.TokenReused {
		t.Fatalf("expected reuse event, got %+v", evt)
	}

	svc.InvalidateUser(ctx, "alice@x.com")
	if evt := next(); evt.Type != events.TokenRevoked || evt.Email != "alice@x.com" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestInvalidateToken(t *testing.T) {
	svc, _ := newTestService(t, time.Minute)

	tok, err := svc.IssueToken(context.Background(), "alice@x.com", "secret")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	svc.InvalidateToken(context.Background(), tok.ID)

	if _, err := svc.Resolve(context.Background(), tok.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	// Invalidating an already gone token is a no-op.
	svc.InvalidateToken(context.Background(), tok.ID)
}
