package guard_test

import (
	"context"
	"testing"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/guard"
	"github.com/moviehub/frontend-session/internal/core/ports"
	"github.com/moviehub/frontend-session/internal/core/session"
	"github.com/moviehub/frontend-session/internal/infrastructure/db/memory"
)

type adminAuth struct{}

func (adminAuth) Login(context.Context, string, string) (*domain.AuthResult, error) {
	return &domain.AuthResult{User: &domain.User{ID: 1, Role: domain.RoleAdmin}, Token: "t"}, nil
}

func (adminAuth) Signup(context.Context, domain.SignupData) (*domain.AuthResult, error) {
	return nil, domain.ErrAuthUnavailable
}

func TestSessionFlow_LoginThenLogout(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorage()
	store := session.New(storage, adminAuth{})

	if d := guard.Evaluate(store.Snapshot(), guard.Require(), "/admin"); d.Outcome != guard.Loading {
		t.Fatalf("expected loading before restore, got %v", d.Outcome)
	}

	store.Restore(ctx)
	if store.Snapshot().IsAuthenticated {
		t.Fatal("no stored session: expected unauthenticated after restore")
	}

	if _, err := store.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	for _, key := range []string{ports.StorageKeyUser, ports.StorageKeyToken} {
		if _, ok, _ := storage.Get(ctx, key); !ok {
			t.Fatalf("expected %q to be persisted", key)
		}
	}

	snap := store.Snapshot()
	if snap.Role() != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", snap.Role())
	}
	if d := guard.Evaluate(snap, guard.Require(domain.RoleAdmin), "/admin"); d.Outcome != guard.Render {
		t.Fatalf("expected render, got %+v", d)
	}
	d := guard.Evaluate(snap, guard.Require(domain.RoleCustomer), "/customer")
	if d.Outcome != guard.RedirectToRoleHome || d.Location != "/admin" {
		t.Fatalf("expected redirect to /admin, got %+v", d)
	}

	store.Logout(ctx)

	if storage.Len() != 0 {
		t.Fatal("logout must clear durable storage")
	}
	snap = store.Snapshot()
	if snap.IsAuthenticated {
		t.Fatal("expected unauthenticated after logout")
	}
	for _, req := range []guard.Requirement{guard.Require(), guard.Require(domain.RoleAdmin), guard.Require(domain.RoleCustomer)} {
		if d := guard.Evaluate(snap, req, "/admin"); d.Outcome != guard.RedirectToLogin {
			t.Errorf("%+v: expected redirect to login, got %v", req, d.Outcome)
		}
	}
}

func TestSessionFlow_RestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorage()

	first := session.New(storage, adminAuth{})
	first.Restore(ctx)
	if _, err := first.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second := session.New(storage, adminAuth{})
	second.Restore(ctx)

	if d := guard.Evaluate(second.Snapshot(), guard.Require(domain.RoleAdmin), "/admin"); d.Outcome != guard.Render {
		t.Fatalf("restored session should render the admin view, got %+v", d)
	}
}
