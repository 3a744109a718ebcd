package auth

import (
	"net/http"
	"testing"
)

func sessionWith(role Role, org string) Session {
	return Session{
		TokenID: "t1",
		User:    User{Email: "alice@x.com", Role: role, OrganizationID: org},
	}
}

func TestAuthorizeRole(t *testing.T) {
	if errs := AuthorizeRole(RoleUser, sessionWith(RoleOrganizationAdmin, "org1")); errs.Failed() {
		t.Fatalf("dominating role must pass: %v", errs)
	}
	errs := AuthorizeRole(RoleAdmin, sessionWith(RoleUser, "org1"))
	if len(errs) != 1 || errs.Status() != http.StatusForbidden {
		t.Fatalf("expected one 403, got %v", errs)
	}
}

func TestAuthorizeOrganization(t *testing.T) {
	// Caller from org1 targeting org2 with a plain role is refused.
	errs := AuthorizeOrganization("org2", sessionWith(RoleUser, "org1"))
	if len(errs) != 1 || errs.Status() != http.StatusForbidden {
		t.Fatalf("expected one 403, got %v", errs)
	}

	if errs := AuthorizeOrganization("org1", sessionWith(RoleUser, "org1")); errs.Failed() {
		t.Fatalf("same organization must pass: %v", errs)
	}

	// The top role crosses organization boundaries.
	if errs := AuthorizeOrganization("org2", sessionWith(RoleAdmin, "")); errs.Failed() {
		t.Fatalf("ADMIN must pass: %v", errs)
	}
}

func TestAuthorizeObject(t *testing.T) {
	if errs := AuthorizeObject(nil, "org1"); errs.Failed() {
		t.Fatalf("absent object is not this check's concern: %v", errs)
	}

	org1 := "org1"
	if errs := AuthorizeObject(&org1, "org1"); errs.Failed() {
		t.Fatalf("matching organization must pass: %v", errs)
	}

	org2 := "org2"
	errs := AuthorizeObject(&org2, "org1")
	if len(errs) != 1 || errs.Status() != http.StatusForbidden {
		t.Fatalf("expected one 403, got %v", errs)
	}
}
