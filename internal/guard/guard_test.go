package guard

import (
	"testing"

	"campushub/portal/internal/model"
	"campushub/portal/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func authedStore(t *testing.T, role model.Role) *session.Store {
	t.Helper()
	store := newStore(t)
	err := store.Set(&model.Principal{
		ID:    "u1",
		Email: "user@demo.local",
		Role:  role,
	}, "access-token", "refresh-token")
	if err != nil {
		t.Fatalf("set session: %v", err)
	}
	return store
}

func TestUnauthenticatedIsDeniedWithReturnURL(t *testing.T) {
	store := newStore(t)

	decision := Evaluate(store, Request{Path: "/teacher/events"})
	if decision.Outcome != DeniedAuth {
		t.Fatalf("expected DeniedAuth, got %s", decision.Outcome)
	}
	if decision.Redirect != "/login?returnUrl=%2Fteacher%2Fevents" {
		t.Fatalf("unexpected redirect %s", decision.Redirect)
	}
}

func TestNoRoleRequirementNeedsOnlyAuth(t *testing.T) {
	store := authedStore(t, model.RoleStudent)

	decision := Evaluate(store, Request{Path: "/notifications"})
	if decision.Outcome != Allowed {
		t.Fatalf("expected Allowed, got %s", decision.Outcome)
	}
	if decision.Redirect != "" {
		t.Fatalf("allowed decision must not redirect, got %s", decision.Redirect)
	}
}

func TestEmptyRoleSetEqualsNoRequirement(t *testing.T) {
	store := authedStore(t, model.RoleStudent)

	decision := Evaluate(store, Request{Path: "/profile", Roles: []model.Role{}})
	if decision.Outcome != Allowed {
		t.Fatalf("expected Allowed for empty role set, got %s", decision.Outcome)
	}
}

func TestRoleMembership(t *testing.T) {
	cases := []struct {
		name     string
		role     model.Role
		required []model.Role
		outcome  Outcome
		redirect string
	}{
		{"teacher on teacher route", model.RoleTeacher, []model.Role{model.RoleTeacher}, Allowed, ""},
		{"teacher on admin route", model.RoleTeacher, []model.Role{model.RoleAdmin}, DeniedRole, "/teacher/dashboard"},
		{"student on admin route", model.RoleStudent, []model.Role{model.RoleAdmin}, DeniedRole, "/student/dashboard"},
		{"admin on teacher route", model.RoleAdmin, []model.Role{model.RoleTeacher}, DeniedRole, "/admin/dashboard"},
		{"member of larger set", model.RoleStudent, []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent}, Allowed, ""},
		{"unknown role", model.Role("ghost"), []model.Role{model.RoleAdmin}, DeniedRole, "/unauthorized"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := authedStore(t, tc.role)
			decision := Evaluate(store, Request{Path: "/x", Roles: tc.required})
			if decision.Outcome != tc.outcome {
				t.Fatalf("expected %s, got %s", tc.outcome, decision.Outcome)
			}
			if decision.Redirect != tc.redirect {
				t.Fatalf("expected redirect %q, got %q", tc.redirect, decision.Redirect)
			}
		})
	}
}

func TestTokenWithoutPrincipalIsDefensivelyDenied(t *testing.T) {
	store := newStore(t)
	if err := store.Set(nil, "orphan-token", ""); err != nil {
		t.Fatalf("set session: %v", err)
	}

	decision := Evaluate(store, Request{Path: "/admin", Roles: []model.Role{model.RoleAdmin}})
	if decision.Outcome != DeniedRole {
		t.Fatalf("expected DeniedRole, got %s", decision.Outcome)
	}
	if decision.Redirect != UnauthorizedPath {
		t.Fatalf("expected unauthorized redirect, got %s", decision.Redirect)
	}
}

func TestDecisionsAreIndependentAcrossNavigations(t *testing.T) {
	store := authedStore(t, model.RoleTeacher)
	req := Request{Path: "/teacher", Roles: []model.Role{model.RoleTeacher}}

	if decision := Evaluate(store, req); decision.Outcome != Allowed {
		t.Fatalf("expected Allowed, got %s", decision.Outcome)
	}

	// Session changes between attempts must be reflected immediately.
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if decision := Evaluate(store, req); decision.Outcome != DeniedAuth {
		t.Fatalf("expected DeniedAuth after logout, got %s", decision.Outcome)
	}
}

func TestResolveLongestPrefix(t *testing.T) {
	route, ok := Resolve("/teacher/events/42")
	if !ok || !route.Protected {
		t.Fatalf("expected protected teacher route, got %+v ok=%v", route, ok)
	}
	if len(route.Roles) != 1 || route.Roles[0] != model.RoleTeacher {
		t.Fatalf("unexpected roles %v", route.Roles)
	}

	if route, ok := Resolve("/login"); !ok || route.Protected {
		t.Fatalf("login must resolve as public, got %+v ok=%v", route, ok)
	}

	if _, ok := Resolve("/somewhere-else"); ok {
		t.Fatalf("unknown paths must not resolve")
	}
}

func TestRequestFor(t *testing.T) {
	req, guarded := RequestFor("/admin/users")
	if !guarded {
		t.Fatalf("expected guarded request")
	}
	if len(req.Roles) != 1 || req.Roles[0] != model.RoleAdmin {
		t.Fatalf("unexpected roles %v", req.Roles)
	}

	if _, guarded := RequestFor("/register"); guarded {
		t.Fatalf("register must not be guarded")
	}
}
