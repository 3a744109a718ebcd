package httpapi

import (
	"net/http"
	"time"

	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/directory"
	"orgauth.dev/internal/obs"
)

// Options carries the deployment-specific knobs of the HTTP layer.
type Options struct {
	// CookieDomain scopes the Authorization cookie set on login.
	CookieDomain string
	// CookieTTL bounds the Authorization cookie lifetime. Typically the
	// token TTL; the server-side sliding window stays authoritative.
	CookieTTL time.Duration
	Version   string
}

// API is the HTTP layer over the auth core and the directories.
type API struct {
	mux    *http.ServeMux
	tokens *auth.Service
	users  directory.UserDirectory
	orgs   directory.OrganizationDirectory
	hasher auth.Hasher
	opts   Options
}

func New(tokens *auth.Service, users directory.UserDirectory, orgs directory.OrganizationDirectory, hasher auth.Hasher, opts Options) *API {
	a := &API{
		mux:    http.NewServeMux(),
		tokens: tokens,
		users:  users,
		orgs:   orgs,
		hasher: hasher,
		opts:   opts,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/login", a.handleLogin)
	a.mux.HandleFunc("/logout", a.handleLogout)
	a.mux.HandleFunc("/organizations", a.handleOrganizations)
	a.mux.HandleFunc("/organizations/", a.handleOrganizationScoped)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withSession(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "orgauth-api",
		"version": a.opts.Version,
	})
}
