// Package directory holds the user and organization directories the
// auth core consumes. The core only reads them; ownership of the
// records stays here.
package directory

import (
	"context"

	"orgauth.dev/internal/auth"
)

// UserDirectory manages user records keyed by case-insensitive email.
// FindByEmail returns auth.ErrUserNotFound for unknown emails.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	Save(ctx context.Context, user *auth.User) error
	DeleteByEmail(ctx context.Context, email string) error
	// List returns users of one organization, or all users when
	// organizationID is empty.
	List(ctx context.Context, organizationID string) ([]*auth.User, error)
}

// OrganizationDirectory manages organization records. FindByID returns
// auth.ErrOrganizationNotFound for unknown ids.
type OrganizationDirectory interface {
	FindByID(ctx context.Context, id string) (*auth.Organization, error)
	Save(ctx context.Context, org *auth.Organization) error
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]*auth.Organization, error)
}
