package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/obs"
)

const (
	authHeader = "Authorization"
	authCookie = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/login",
	"/healthz",
	"/metrics",
	"/",
}

// withSession resolves the presented session token into a typed Session
// on the request context. Requests to protected paths without a token
// get 401 "missing"; requests whose token does not resolve get 401
// "expired or not created". Handlers enforce their own role and
// organization requirements on the resolved session.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenID := extractToken(r)
		if tokenID == "" {
			writeError(w, r, http.StatusUnauthorized, "session token is missing in header or cookie")
			return
		}

		session, err := a.tokens.Resolve(r.Context(), tokenID)
		if err != nil {
			if errors.Is(err, auth.ErrTokenNotFound) {
				obs.TokenLookup("miss")
				writeError(w, r, http.StatusUnauthorized, "session token expired or was not created")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		obs.TokenLookup("hit")

		ctx := auth.ContextWithSession(r.Context(), session)
		ctx = auth.ContextWithToken(ctx, tokenID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionRequired returns the resolved session for an operation that
// declares an authentication requirement. A missing session here is not
// a caller mistake: withSession already rejected unauthenticated
// requests, so absence means the operation was wired outside the
// session pipeline. That is a deployment defect and surfaces as 500.
func (a *API) sessionRequired(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "session container is not configured for this operation")
		return auth.Session{}, false
	}
	return session, true
}

// roleRequired enforces the operation's declared role on the resolved
// session.
func (a *API) roleRequired(w http.ResponseWriter, r *http.Request, required auth.Role) (auth.Session, bool) {
	session, ok := a.sessionRequired(w, r)
	if !ok {
		return auth.Session{}, false
	}
	if errs := auth.AuthorizeRole(required, session); errs.Failed() {
		obs.AuthzDenied("role")
		writeValidation(w, r, errs)
		return auth.Session{}, false
	}
	return session, true
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" {
		if strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
			return strings.TrimSpace(header[len(bearer):])
		}
		return header
	}
	if cookie, err := r.Cookie(authCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
