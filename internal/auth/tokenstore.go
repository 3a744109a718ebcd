package auth

import (
	"sync"
	"time"
)

// TokenStore holds live session tokens in memory with a sliding
// expiration window: an entry expires when it has not been touched for
// ttl, measured from its last successful access rather than creation.
// The store is intentionally not persisted; a process restart forces
// re-login.
//
// At most one live token exists per user email. Put and IssueFor keep a
// per-email index in sync under the same lock, so concurrent logins for
// one user cannot race into two live tokens.
type TokenStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*tokenEntry
	byEmail map[string]string
}

type tokenEntry struct {
	token      Token
	lastAccess time.Time
}

// StoreOption configures a TokenStore.
type StoreOption func(*TokenStore)

// WithStoreClock overrides the time source, used by expiry tests.
func WithStoreClock(fn func() time.Time) StoreOption {
	return func(s *TokenStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenStore creates a store whose entries expire after ttl of
// inactivity.
func NewTokenStore(ttl time.Duration, opts ...StoreOption) *TokenStore {
	s := &TokenStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*tokenEntry),
		byEmail: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts or overwrites a token and resets its eviction clock. Any
// previous live token for the same user is evicted first.
func (s *TokenStore) Put(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(tok)
}

func (s *TokenStore) putLocked(tok Token) {
	email := NormalizeEmail(tok.User.Email)
	if prev, ok := s.byEmail[email]; ok && prev != tok.ID {
		delete(s.entries, prev)
	}
	s.entries[tok.ID] = &tokenEntry{token: tok, lastAccess: s.now()}
	s.byEmail[email] = tok.ID
}

// Get returns the token for id if it is still live, refreshing its
// eviction clock. Expired entries are reclaimed lazily here and never
// returned.
func (s *TokenStore) Get(id string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Token{}, false
	}
	if s.expiredLocked(entry) {
		s.removeLocked(id, entry)
		return Token{}, false
	}
	entry.lastAccess = s.now()
	return entry.token, true
}

// IssueFor returns the live token for email, refreshing its eviction
// clock, or stores and returns a freshly minted one. Check and insert
// happen under one lock; mint must be cheap and side-effect free.
func (s *TokenStore) IssueFor(email string, mint func() Token) Token {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[email]; ok {
		if entry, live := s.entries[id]; live {
			if !s.expiredLocked(entry) {
				entry.lastAccess = s.now()
				return entry.token
			}
			s.removeLocked(id, entry)
		}
	}

	tok := mint()
	s.putLocked(tok)
	return tok
}

// Evict removes one token. Used on explicit logout by token id.
func (s *TokenStore) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		s.removeLocked(id, entry)
	}
}

// EvictAllForUser removes every live token belonging to email. A user
// with no live token is a no-op, not an error.
func (s *TokenStore) EvictAllForUser(email string) {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[email]; ok {
		delete(s.entries, id)
		delete(s.byEmail, email)
	}
	// The index is authoritative under the one-token invariant, but a
	// defensive sweep keeps forced logout complete even if it was ever
	// violated.
	for id, entry := range s.entries {
		if NormalizeEmail(entry.token.User.Email) == email {
			delete(s.entries, id)
		}
	}
}

// Sweep reclaims expired entries eagerly and reports how many were
// removed. Get already filters expired entries; Sweep only bounds
// memory between lookups.
func (s *TokenStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expiredLocked(entry) {
			s.removeLocked(id, entry)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including any not yet
// reclaimed expired ones.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *TokenStore) expiredLocked(entry *tokenEntry) bool {
	return s.now().Sub(entry.lastAccess) >= s.ttl
}

func (s *TokenStore) removeLocked(id string, entry *tokenEntry) {
	delete(s.entries, id)
	email := NormalizeEmail(entry.token.User.Email)
	if s.byEmail[email] == id {
		delete(s.byEmail, email)
	}
}
