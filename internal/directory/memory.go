package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"orgauth.dev/internal/auth"
)

// MemoryUsers is an in-process UserDirectory. Safe for concurrent use;
// the default backing for tests and single-node runs.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]auth.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]auth.User)}
}

func (d *MemoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &user, nil
}

func (d *MemoryUsers) Save(_ context.Context, user *auth.User) error {
	email := auth.NormalizeEmail(user.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *user
	stored.Email = email
	now := time.Now().UTC()
	if existing, ok := d.users[email]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	d.users[email] = stored
	return nil
}

func (d *MemoryUsers) DeleteByEmail(_ context.Context, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, auth.NormalizeEmail(email))
	return nil
}

func (d *MemoryUsers) List(_ context.Context, organizationID string) ([]*auth.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]*auth.User, 0, len(d.users))
	for _, user := range d.users {
		if organizationID != "" && user.OrganizationID != organizationID {
			continue
		}
		u := user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// MemoryOrganizations is an in-process OrganizationDirectory.
type MemoryOrganizations struct {
	mu   sync.RWMutex
	orgs map[string]auth.Organization
}

func NewMemoryOrganizations() *MemoryOrganizations {
	return &MemoryOrganizations{orgs: make(map[string]auth.Organization)}
}

func (d *MemoryOrganizations) FindByID(_ context.Context, id string) (*auth.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	org, ok := d.orgs[id]
	if !ok {
		return nil, auth.ErrOrganizationNotFound
	}
	return &org, nil
}

func (d *MemoryOrganizations) Save(_ context.Context, org *auth.Organization) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *org
	now := time.Now().UTC()
	if existing, ok := d.orgs[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	d.orgs[stored.ID] = stored
	return nil
}

func (d *MemoryOrganizations) DeleteByID(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.orgs, id)
	return nil
}

func (d *MemoryOrganizations) List(_ context.Context) ([]*auth.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	orgs := make([]*auth.Organization, 0, len(d.orgs))
	for _, org := range d.orgs {
		o := org
		orgs = append(orgs, &o)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

var (
	_ UserDirectory         = (*MemoryUsers)(nil)
	_ OrganizationDirectory = (*MemoryOrganizations)(nil)
)
