package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/directory"
)

const testPassword = "secret"

// testEnv wires the API against in-memory directories with a fixed set
// of accounts:
//
//	admin@x.com    ADMIN               (no organization)
//	boss@org1.com  ORGANIZATION_ADMIN  org1
//	alice@x.com    USER                org1
//	bob@x.com      USER                org2
type testEnv struct {
	api     *API
	tokens  *auth.Service
	users   *directory.MemoryUsers
	orgs    *directory.MemoryOrganizations
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hasher := auth.SaltedSHA256Hasher{Salt: "test"}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	users := directory.NewMemoryUsers()
	orgs := directory.NewMemoryOrganizations()
	ctx := context.Background()

	seed := []auth.User{
		{Email: "admin@x.com", PasswordHash: hash, Role: auth.RoleAdmin},
		{Email: "boss@org1.com", PasswordHash: hash, Role: auth.RoleOrganizationAdmin, OrganizationID: "org1"},
		{Email: "alice@x.com", PasswordHash: hash, Role: auth.RoleUser, OrganizationID: "org1"},
		{Email: "bob@x.com", PasswordHash: hash, Role: auth.RoleUser, OrganizationID: "org2"},
	}
	for _, u := range seed {
		user := u
		if err := users.Save(ctx, &user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	for _, org := range []auth.Organization{
		{ID: "org1", Name: "First"},
		{ID: "org2", Name: "Second"},
	} {
		o := org
		if err := orgs.Save(ctx, &o); err != nil {
			t.Fatalf("seed organization: %v", err)
		}
	}

	store := auth.NewTokenStore(time.Minute)
	tokens, err := auth.NewService(store, users, hasher)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	api := New(tokens, users, orgs, hasher, Options{CookieTTL: time.Minute, Version: "test"})
	return &testEnv{
		api:     api,
		tokens:  tokens,
		users:   users,
		orgs:    orgs,
		handler: api.withSession(api.mux),
	}
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.IssueToken(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return tok.ID
}

func (e *testEnv) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(authHeader, token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func TestSessionMissing(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/organizations/org1", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "missing in header or cookie") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestSessionInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/organizations/org1", "not-a-token")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "expired or was not created") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestSessionFromCookie(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice@x.com")

	req := httptest.NewRequest(http.MethodGet, "/organizations/org1", nil)
	req.AddCookie(&http.Cookie{Name: authCookie, Value: token})
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSessionFromBearerHeader(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice@x.com")

	rr := env.do(t, http.MethodGet, "/organizations/org1", "Bearer "+token)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPublicPathsSkipSessionCheck(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// A handler that declares a role requirement but is served outside the
// session pipeline is a wiring defect, not a caller error.
func TestSessionContainerMisconfiguration(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/logout?email=alice@x.com", nil)
	rr := httptest.NewRecorder()
	env.api.handleLogout(rr, req) // bypasses withSession on purpose

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "session container") {
		t.Fatalf("unexpected body: %s", body)
	}
}

