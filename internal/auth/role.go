package auth

import (
	"fmt"
	"strings"
)

// Role is a closed, ordered set of privilege levels. Higher precedence
// means more privilege; the ordering is total and fixed at compile time.
type Role int

const (
	RoleUser Role = iota + 1
	RoleOrganizationAdmin
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:              "USER",
	RoleOrganizationAdmin: "ORGANIZATION_ADMIN",
	RoleAdmin:             "ADMIN",
}

// Precedence returns the integer rank of the role.
func (r Role) Precedence() int { return int(r) }

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// IsAdmin reports whether r is the top, organization-unscoped role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Dominates reports whether actual is at least as privileged as required.
func Dominates(required, actual Role) bool {
	return actual.Precedence() >= required.Precedence()
}

// ParseRole maps a role name to its Role. Unknown names are a
// configuration defect and fail here, before any request is served.
func ParseRole(name string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for role, roleName := range roleNames {
		if roleName == normalized {
			return role, nil
		}
	}
	return 0, fmt.Errorf("auth: unknown role %q", name)
}

// MarshalText implements encoding.TextMarshaler so roles serialize by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("auth: cannot marshal unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; unknown names error out.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
