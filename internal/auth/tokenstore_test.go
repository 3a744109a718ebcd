package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func testToken(id, email string) Token {
	return Token{
		ID:        id,
		User:      User{Email: email, Role: RoleUser, OrganizationID: "org1"},
		CreatedAt: time.Now().UTC(),
	}
}

func TestTokenStorePutGet(t *testing.T) {
	store := NewTokenStore(time.Minute)
	store.Put(testToken("t1", "alice@x.com"))

	tok, ok := store.Get("t1")
	if !ok {
		t.Fatal("expected token")
	}
	if tok.User.Email != "alice@x.com" {
		t.Fatalf("unexpected user: %s", tok.User.Email)
	}
	if _, ok := store.Get("unknown"); ok {
		t.Fatal("unknown id must miss")
	}
}

func TestTokenStoreSlidingExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewTokenStore(time.Minute, WithStoreClock(func() time.Time { return now }))
	store.Put(testToken("t1", "alice@x.com"))

	// Touch just before the window elapses; the clock must slide.
	now = now.Add(59 * time.Second)
	if _, ok := store.Get("t1"); !ok {
		t.Fatal("token accessed inside the window must stay valid")
	}

	// Another 59s of inactivity is still within the refreshed window.
	now = now.Add(59 * time.Second)
	if _, ok := store.Get("t1"); !ok {
		t.Fatal("sliding window must be measured from last access")
	}

	// Full window of inactivity expires the entry.
	now = now.Add(time.Minute)
	if _, ok := store.Get("t1"); ok {
		t.Fatal("token idle past the window must expire")
	}
}

func TestTokenStoreZeroTTLExpiresImmediately(t *testing.T) {
	store := NewTokenStore(0)
	store.Put(testToken("t1", "alice@x.com"))
	if _, ok := store.Get("t1"); ok {
		t.Fatal("zero ttl must never return a token")
	}
}

func TestTokenStoreSingleTokenPerUser(t *testing.T) {
	store := NewTokenStore(time.Minute)
	store.Put(testToken("t1", "alice@x.com"))
	store.Put(testToken("t2", "Alice@X.com"))

	if _, ok := store.Get("t1"); ok {
		t.Fatal("previous token for the same user must be evicted")
	}
	if _, ok := store.Get("t2"); !ok {
		t.Fatal("latest token must be live")
	}
}

func TestTokenStoreIssueForReusesLiveToken(t *testing.T) {
	store := NewTokenStore(time.Minute)
	minted := 0
	mint := func() Token {
		minted++
		return testToken(fmt.Sprintf("t%d", minted), "alice@x.com")
	}

	first := store.IssueFor("alice@x.com", mint)
	second := store.IssueFor("ALICE@x.com", mint)

	if first.ID != second.ID {
		t.Fatalf("expected one live token, got %s and %s", first.ID, second.ID)
	}
	if minted != 1 {
		t.Fatalf("mint called %d times, want 1", minted)
	}
}

func TestTokenStoreIssueForConcurrent(t *testing.T) {
	store := NewTokenStore(time.Minute)
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tok := store.IssueFor("alice@x.com", func() Token {
				return testToken(fmt.Sprintf("t%d", n), "alice@x.com")
			})
			mu.Lock()
			ids[tok.ID] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("concurrent logins produced %d distinct tokens, want 1", len(ids))
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d entries, want 1", store.Len())
	}
}

func TestTokenStoreEvictAllForUser(t *testing.T) {
	store := NewTokenStore(time.Minute)
	store.Put(testToken("t1", "alice@x.com"))
	store.Put(testToken("t2", "bob@x.com"))

	store.EvictAllForUser("ALICE@x.com")
	if _, ok := store.Get("t1"); ok {
		t.Fatal("alice's token must be gone")
	}
	if _, ok := store.Get("t2"); !ok {
		t.Fatal("bob's token must survive")
	}

	// Second invalidation is a no-op, never an error.
	store.EvictAllForUser("alice@x.com")
	store.EvictAllForUser("nobody@x.com")
}

func TestTokenStoreSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewTokenStore(time.Minute, WithStoreClock(func() time.Time { return now }))
	store.Put(testToken("t1", "alice@x.com"))
	store.Put(testToken("t2", "bob@x.com"))

	now = now.Add(2 * time.Minute)
	if removed := store.Sweep(); removed != 2 {
		t.Fatalf("swept %d entries, want 2", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("store holds %d entries after sweep, want 0", store.Len())
	}
}
