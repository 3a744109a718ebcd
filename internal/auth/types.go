package auth

import (
	"strings"
	"time"
)

// Organization is a tenant. Owned by the organization directory; the
// auth core only reads it.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an account in the user directory. Email is the unique,
// case-insensitive identifier. OrganizationID is empty only for ADMIN
// accounts, which are not scoped to any tenant.
type User struct {
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	OrganizationID   string    `json:"organization_id,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Token is an opaque session credential. It snapshots the user at
// issuance time; callers only ever hold the id string.
type Token struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created"`
}

// Session is the resolved identity attached to one request. It is
// derived from a token at resolution time and never persisted.
type Session struct {
	TokenID string
	User    User
}

// NewSession builds the per-request session view of a token.
func NewSession(tok Token) Session {
	return Session{TokenID: tok.ID, User: tok.User}
}

// NormalizeEmail canonicalizes an email for lookups and comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
