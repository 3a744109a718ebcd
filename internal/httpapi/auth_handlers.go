package httpapi

import (
	"errors"
	"net/http"
	"time"

	"orgauth.dev/internal/audit"
	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/obs"
)

// handleLogin exchanges credentials for the user's session token. An
// unknown email and a wrong password are answered identically so the
// endpoint cannot be used to enumerate accounts.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	email := r.URL.Query().Get("email")
	password := r.URL.Query().Get("password")
	if email == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	tok, err := a.tokens.IssueToken(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			obs.TokenIssued("denied")
			_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{
				"email": auth.NormalizeEmail(email),
			})
			writeError(w, r, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	obs.TokenIssued("granted")
	_ = audit.LogEvent(r.Context(), "auth.login.granted", map[string]any{
		"email": tok.User.Email,
	})

	w.Header().Set(authHeader, tok.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    tok.ID,
		Domain:   a.opts.CookieDomain,
		Path:     "/",
		Expires:  time.Now().Add(a.opts.CookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, tok)
}

// handleLogout revokes the caller's session token. A user can only log
// out their own account.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	session, ok := a.roleRequired(w, r, auth.RoleUser)
	if !ok {
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		email = session.User.Email
	}
	if auth.NormalizeEmail(email) != session.User.Email {
		obs.AuthzDenied("self")
		writeError(w, r, http.StatusForbidden,
			"user "+session.User.Email+" cannot log out other users")
		return
	}

	a.tokens.InvalidateUser(r.Context(), email)
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"email": auth.NormalizeEmail(email),
	})
	w.WriteHeader(http.StatusNoContent)
}
