package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orgauth.dev/internal/events"
)

// UserDirectory is the slice of the external user directory the token
// service needs. Lookups are case-insensitive on email and may be
// arbitrarily slow; they carry the request context.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Service bridges credential verification to token issuance and owns
// token invalidation. It orchestrates the TokenStore and the external
// user directory; password comparison is delegated to the Hasher.
type Service struct {
	store  *TokenStore
	users  UserDirectory
	hasher Hasher
	now    func() time.Time
	bus    *events.Bus
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithEventBus publishes session lifecycle events to bus. Optional; a
// nil bus disables publishing.
func WithEventBus(bus *events.Bus) ServiceOption {
	return func(s *Service) {
		s.bus = bus
	}
}

// NewService wires the token service. All collaborators are injected;
// the service holds no process-global state.
func NewService(store *TokenStore, users UserDirectory, hasher Hasher, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: token store is required")
	}
	if users == nil {
		return nil, errors.New("auth: user directory is required")
	}
	if hasher == nil {
		return nil, errors.New("auth: password hasher is required")
	}
	s := &Service{
		store:  store,
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueToken verifies credentials and returns the session token for the
// user. If a live token already exists its TTL is refreshed and the
// same token is returned, so repeated logins never accumulate tokens
// and logout has exactly one credential to revoke.
//
// Failures are ErrUserNotFound and ErrInvalidCredentials; transports
// must surface both identically.
func (s *Service) IssueToken(ctx context.Context, email, password string) (Token, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Token{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Token{}, ErrUserNotFound
		}
		return Token{}, fmt.Errorf("auth: look up user %s: %w", email, err)
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	snapshot := *user
	snapshot.Email = email
	minted := false
	tok := s.store.IssueFor(email, func() Token {
		minted = true
		return Token{
			ID:        uuid.NewString(),
			User:      snapshot,
			CreatedAt: s.now().UTC(),
		}
	})

	kind := events.TokenReused
	if minted {
		kind = events.TokenIssued
	}
	s.bus.Publish(events.Event{Type: kind, Email: email})
	return tok, nil
}

// GetToken resolves a token id to its live token, refreshing the
// sliding expiration window.
func (s *Service) GetToken(ctx context.Context, id string) (Token, bool) {
	_ = ctx
	if id == "" {
		return Token{}, false
	}
	return s.store.Get(id)
}

// Resolve turns a presented token id into a request session or
// ErrTokenNotFound when the token expired or never existed.
func (s *Service) Resolve(ctx context.Context, id string) (Session, error) {
	tok, ok := s.GetToken(ctx, id)
	if !ok {
		return Session{}, ErrTokenNotFound
	}
	return NewSession(tok), nil
}

// InvalidateToken removes a single token. Used on logout by token id.
func (s *Service) InvalidateToken(ctx context.Context, id string) {
	_ = ctx
	s.store.Evict(id)
}

// InvalidateUser revokes every live token for email. Idempotent: a user
// with no live token is a no-op.
func (s *Service) InvalidateUser(ctx context.Context, email string) {
	_ = ctx
	s.store.EvictAllForUser(email)
	s.bus.Publish(events.Event{Type: events.TokenRevoked, Email: NormalizeEmail(email)})
}
