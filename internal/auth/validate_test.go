package auth

import (
	"net/http"
	"testing"
)

func TestChainShortCircuits(t *testing.T) {
	evaluated := []string{}
	rule := func(name string, errs ValidationErrors) Rule {
		return func() ValidationErrors {
			evaluated = append(evaluated, name)
			return errs
		}
	}

	errs := Chain(
		rule("exists", OK()),
		rule("access", Invalid(http.StatusNotFound, "organization org9 doesn't exist")),
		rule("precedence", Invalid(http.StatusForbidden, "must never run")),
	)

	if len(errs) != 1 || errs.Status() != http.StatusNotFound {
		t.Fatalf("expected the second rule's error only, got %v", errs)
	}
	if len(evaluated) != 2 || evaluated[0] != "exists" || evaluated[1] != "access" {
		t.Fatalf("later rules must not run after a failure, evaluated: %v", evaluated)
	}
}

func TestChainAllPass(t *testing.T) {
	errs := Chain(
		func() ValidationErrors { return OK() },
		func() ValidationErrors { return OK() },
	)
	if errs.Failed() {
		t.Fatalf("expected success, got %v", errs)
	}
	if errs.Status() != 0 {
		t.Fatalf("success has no status, got %d", errs.Status())
	}
}

func TestChainEmpty(t *testing.T) {
	if errs := Chain(); errs.Failed() {
		t.Fatalf("empty chain must pass, got %v", errs)
	}
}

func TestInvalidFormats(t *testing.T) {
	errs := Invalid(http.StatusConflict, "user %s already belongs to organization %s", "a@x.com", "org2")
	if errs[0].Message != "user a@x.com already belongs to organization org2" {
		t.Fatalf("unexpected message: %s", errs[0].Message)
	}
}
