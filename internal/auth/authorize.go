package auth

import "net/http"

// The three recurring authorization decisions. All are pure and
// deterministic; transports compose them into per-operation chains.

// AuthorizeRole passes iff the session's role is at least as privileged
// as required.
func AuthorizeRole(required Role, s Session) ValidationErrors {
	if Dominates(required, s.User.Role) {
		return OK()
	}
	return Invalid(http.StatusForbidden, "user %s has no access to this operation", s.User.Email)
}

// AuthorizeOrganization passes iff the caller is ADMIN or belongs to
// the target organization.
func AuthorizeOrganization(targetOrganizationID string, s Session) ValidationErrors {
	if s.User.Role.IsAdmin() || s.User.OrganizationID == targetOrganizationID {
		return OK()
	}
	return Invalid(http.StatusForbidden, "user %s has no access to organization %s",
		s.User.Email, targetOrganizationID)
}

// AuthorizeObject passes when the addressed object is absent (existence
// is not this check's concern) or when the object's organization
// matches the target. It decouples "does the caller's claim match" from
// "does the addressed resource match".
func AuthorizeObject(objectOrganizationID *string, targetOrganizationID string) ValidationErrors {
	if objectOrganizationID == nil {
		return OK()
	}
	if *objectOrganizationID == targetOrganizationID {
		return OK()
	}
	return Invalid(http.StatusForbidden, "object belongs to organization %s, not %s",
		*objectOrganizationID, targetOrganizationID)
}
