package directory

import (
	"context"
	"database/sql"
	"fmt"

	"orgauth.dev/internal/auth"
)

// PGUsers implements UserDirectory on PostgreSQL. Emails are stored
// lower-cased so uniqueness and lookups stay case-insensitive.
type PGUsers struct {
	db *sql.DB
}

func NewPGUsers(db *sql.DB) *PGUsers { return &PGUsers{db: db} }

func (d *PGUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := d.db.QueryRowContext(ctx,
		`select email, password_hash, role, organization_id, organization_name, created_at, updated_at
		   from users where email = $1`, auth.NormalizeEmail(email))
	return scanUser(row)
}

func (d *PGUsers) Save(ctx context.Context, user *auth.User) error {
	_, err := d.db.ExecContext(ctx,
		`insert into users(email, password_hash, role, organization_id, organization_name, created_at, updated_at)
		 values($1,$2,$3,$4,$5,now(),now())
		 on conflict (email) do update
		    set password_hash = excluded.password_hash,
		        role = excluded.role,
		        organization_id = excluded.organization_id,
		        organization_name = excluded.organization_name,
		        updated_at = now()`,
		auth.NormalizeEmail(user.Email), user.PasswordHash, user.Role.String(),
		user.OrganizationID, user.OrganizationName,
	)
	if err != nil {
		return fmt.Errorf("directory: save user %s: %w", user.Email, err)
	}
	return nil
}

func (d *PGUsers) DeleteByEmail(ctx context.Context, email string) error {
	_, err := d.db.ExecContext(ctx, `delete from users where email = $1`, auth.NormalizeEmail(email))
	return err
}

func (d *PGUsers) List(ctx context.Context, organizationID string) ([]*auth.User, error) {
	query := `select email, password_hash, role, organization_id, organization_name, created_at, updated_at
	            from users order by email asc`
	args := []any{}
	if organizationID != "" {
		query = `select email, password_hash, role, organization_id, organization_name, created_at, updated_at
		           from users where organization_id = $1 order by email asc`
		args = append(args, organizationID)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u        auth.User
		roleName string
	)
	err := row.Scan(&u.Email, &u.PasswordHash, &roleName, &u.OrganizationID,
		&u.OrganizationName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	role, err := auth.ParseRole(roleName)
	if err != nil {
		return nil, fmt.Errorf("directory: user %s: %w", u.Email, err)
	}
	u.Role = role
	return &u, nil
}

// PGOrganizations implements OrganizationDirectory on PostgreSQL.
type PGOrganizations struct {
	db *sql.DB
}

func NewPGOrganizations(db *sql.DB) *PGOrganizations { return &PGOrganizations{db: db} }

func (d *PGOrganizations) FindByID(ctx context.Context, id string) (*auth.Organization, error) {
	row := d.db.QueryRowContext(ctx,
		`select id, name, description, created_at, updated_at from organizations where id = $1`, id)
	var org auth.Organization
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (d *PGOrganizations) Save(ctx context.Context, org *auth.Organization) error {
	_, err := d.db.ExecContext(ctx,
		`insert into organizations(id, name, description, created_at, updated_at)
		 values($1,$2,$3,now(),now())
		 on conflict (id) do update
		    set name = excluded.name,
		        description = excluded.description,
		        updated_at = now()`,
		org.ID, org.Name, org.Description,
	)
	if err != nil {
		return fmt.Errorf("directory: save organization %s: %w", org.ID, err)
	}
	return nil
}

func (d *PGOrganizations) DeleteByID(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	return err
}

func (d *PGOrganizations) List(ctx context.Context) ([]*auth.Organization, error) {
	rows, err := d.db.QueryContext(ctx,
		`select id, name, description, created_at, updated_at from organizations order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*auth.Organization
	for rows.Next() {
		var org auth.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, &org)
	}
	return orgs, rows.Err()
}

var (
	_ UserDirectory         = (*PGUsers)(nil)
	_ OrganizationDirectory = (*PGOrganizations)(nil)
)
