package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"orgauth.dev/internal/audit"
	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/ids"
	"orgauth.dev/internal/obs"
)

type storeOrganizationRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type storeUserRequest struct {
	Email            string    `json:"email"`
	Password         string    `json:"password"`
	Role             auth.Role `json:"role"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.storeOrganization(w, r)
	case http.MethodGet:
		a.listOrganizations(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) storeOrganization(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.roleRequired(w, r, auth.RoleAdmin); !ok {
		return
	}
	var req storeOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "organization name is required")
		return
	}
	org := &auth.Organization{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if org.ID == "" {
		org.ID = ids.New()
	}
	if err := a.orgs.Save(r.Context(), org); err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot store organization")
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.store", map[string]any{
		"organization_id": org.ID,
	})
	w.Header().Set("Location", fmt.Sprintf("/organizations/%s", org.ID))
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.roleRequired(w, r, auth.RoleAdmin); !ok {
		return
	}
	orgs, err := a.orgs.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot list organizations")
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

// handleOrganizationScoped dispatches /organizations/{id}[/users[/{email}]].
func (a *API) handleOrganizationScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/organizations/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	orgID := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getOrganization(w, r, orgID)
		case http.MethodDelete:
			a.deleteOrganization(w, r, orgID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "users":
		switch r.Method {
		case http.MethodGet:
			a.listOrganizationUsers(w, r, orgID)
		case http.MethodPost:
			a.storeUser(w, r, orgID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[1] == "users":
		email := parts[2]
		switch r.Method {
		case http.MethodGet:
			a.getUser(w, r, orgID, email)
		case http.MethodDelete:
			a.deleteUser(w, r, orgID, email)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request, orgID string) {
	session, ok := a.roleRequired(w, r, auth.RoleUser)
	if !ok {
		return
	}
	if errs := auth.AuthorizeOrganization(orgID, session); errs.Failed() {
		obs.AuthzDenied("organization")
		writeValidation(w, r, errs)
		return
	}
	org, err := a.orgs.FindByID(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, auth.ErrOrganizationNotFound) {
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("organization %s doesn't exist", orgID))
			return
		}
		writeError(w, r, http.StatusInternalServerError, "cannot load organization")
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request, orgID string) {
	if _, ok := a.roleRequired(w, r, auth.RoleAdmin); !ok {
		return
	}
	if err := a.orgs.DeleteByID(r.Context(), orgID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot delete organization")
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.delete", map[string]any{
		"organization_id": orgID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listOrganizationUsers(w http.ResponseWriter, r *http.Request, orgID string) {
	if _, ok := a.roleRequired(w, r, auth.RoleAdmin); !ok {
		return
	}
	users, err := a.users.List(r.Context(), orgID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// storeUser creates or updates a user inside an organization. The
// declared chain runs in order and stops at the first failure:
//
//  1. the organization exists (404)
//  2. the caller has access to it (403)
//  3. the user is not claimed by a different organization (409)
//  4. the caller's role precedence covers the role being granted,
//     ADMIN exempt (403)
//  5. the caller is ADMIN, the organization's admin, or acting on
//     their own record (403)
func (a *API) storeUser(w http.ResponseWriter, r *http.Request, orgID string) {
	session, ok := a.roleRequired(w, r, auth.RoleUser)
	if !ok {
		return
	}

	var req storeUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = auth.NormalizeEmail(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}
	if !req.Role.Valid() {
		writeError(w, r, http.StatusBadRequest, "role is required")
		return
	}

	org, err := a.orgs.FindByID(r.Context(), orgID)
	if err != nil && !errors.Is(err, auth.ErrOrganizationNotFound) {
		writeError(w, r, http.StatusInternalServerError, "cannot load organization")
		return
	}
	existing, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, r, http.StatusInternalServerError, "cannot look up user")
		return
	}

	errs := auth.Chain(
		organizationExistsRule(org, orgID),
		func() auth.ValidationErrors { return auth.AuthorizeOrganization(orgID, session) },
		userNotClaimedRule(req, existing, orgID),
		precedenceRule(session, req.Role),
		selfOrOrgAdminRule(session, req.Email),
	)
	if errs.Failed() {
		obs.AuthzDenied(denialReason(errs))
		writeValidation(w, r, errs)
		return
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot hash password")
		return
	}
	user := &auth.User{
		Email:            req.Email,
		PasswordHash:     hash,
		Role:             req.Role,
		OrganizationID:   orgID,
		OrganizationName: req.OrganizationName,
	}
	if err := a.users.Save(r.Context(), user); err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot store user")
		return
	}
	// A role or password change must not leave old sessions alive.
	if existing != nil {
		a.tokens.InvalidateUser(r.Context(), req.Email)
	}
	_ = audit.LogEvent(r.Context(), "user.store", map[string]any{
		"email":           user.Email,
		"organization_id": orgID,
		"role":            user.Role.String(),
	})

	code := http.StatusCreated
	if existing != nil {
		code = http.StatusOK
	}
	writeJSON(w, code, user)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, orgID, email string) {
	session, ok := a.roleRequired(w, r, auth.RoleUser)
	if !ok {
		return
	}
	email = auth.NormalizeEmail(email)

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, r, http.StatusInternalServerError, "cannot look up user")
		return
	}

	errs := auth.Chain(
		func() auth.ValidationErrors { return auth.AuthorizeOrganization(orgID, session) },
		func() auth.ValidationErrors { return auth.AuthorizeObject(userOrganization(user), orgID) },
	)
	if errs.Failed() {
		obs.AuthzDenied(denialReason(errs))
		writeValidation(w, r, errs)
		return
	}
	if user == nil {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("user %s doesn't exist", email))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, orgID, email string) {
	session, ok := a.roleRequired(w, r, auth.RoleOrganizationAdmin)
	if !ok {
		return
	}
	email = auth.NormalizeEmail(email)

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, r, http.StatusInternalServerError, "cannot look up user")
		return
	}

	errs := auth.Chain(
		func() auth.ValidationErrors { return auth.AuthorizeOrganization(orgID, session) },
		func() auth.ValidationErrors { return auth.AuthorizeObject(userOrganization(user), orgID) },
	)
	if errs.Failed() {
		obs.AuthzDenied(denialReason(errs))
		writeValidation(w, r, errs)
		return
	}

	if err := a.users.DeleteByEmail(r.Context(), email); err != nil {
		writeError(w, r, http.StatusInternalServerError, "cannot delete user")
		return
	}
	// Deleting the account revokes its live session as well.
	a.tokens.InvalidateUser(r.Context(), email)
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{
		"email":           email,
		"organization_id": orgID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// --- chain rules, pre-bound to resolved values ---

func organizationExistsRule(org *auth.Organization, orgID string) auth.Rule {
	return func() auth.ValidationErrors {
		if org == nil {
			return auth.Invalid(http.StatusNotFound, "organization %s doesn't exist", orgID)
		}
		return auth.OK()
	}
}

// userNotClaimedRule rejects a store when the body claims a different
// organization than the path, or when the email is already owned by
// another organization. Both are conflicts, not authorization failures.
func userNotClaimedRule(req storeUserRequest, existing *auth.User, orgID string) auth.Rule {
	return func() auth.ValidationErrors {
		if req.OrganizationID != "" && req.OrganizationID != orgID {
			return auth.Invalid(http.StatusConflict,
				"cannot save user %s with organization %s to organization %s",
				req.Email, req.OrganizationID, orgID)
		}
		if existing != nil && existing.OrganizationID != orgID {
			return auth.Invalid(http.StatusConflict,
				"user %s already belongs to organization %s", req.Email, existing.OrganizationID)
		}
		return auth.OK()
	}
}

// precedenceRule stops callers from granting a role above their own.
// ADMIN is exempt.
func precedenceRule(session auth.Session, granted auth.Role) auth.Rule {
	return func() auth.ValidationErrors {
		if session.User.Role.IsAdmin() {
			return auth.OK()
		}
		if granted.Precedence() > session.User.Role.Precedence() {
			return auth.Invalid(http.StatusForbidden,
				"user %s cannot grant role %s above their own", session.User.Email, granted)
		}
		return auth.OK()
	}
}

// selfOrOrgAdminRule confines plain USER callers to their own record.
func selfOrOrgAdminRule(session auth.Session, targetEmail string) auth.Rule {
	return func() auth.ValidationErrors {
		if session.User.Role == auth.RoleUser && session.User.Email != auth.NormalizeEmail(targetEmail) {
			return auth.Invalid(http.StatusForbidden,
				"user %s cannot modify user %s", session.User.Email, auth.NormalizeEmail(targetEmail))
		}
		return auth.OK()
	}
}

func userOrganization(user *auth.User) *string {
	if user == nil {
		return nil
	}
	return &user.OrganizationID
}

func denialReason(errs auth.ValidationErrors) string {
	switch errs.Status() {
	case http.StatusConflict:
		return "conflict"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "forbidden"
	}
}
