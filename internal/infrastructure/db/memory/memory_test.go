package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/session"
)

func TestStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	if _, ok, err := s.Get(ctx, "user"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "user", "{}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "token", "t"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "token"); !ok || v != "t" {
		t.Fatalf("unexpected value %q ok=%v", v, ok)
	}
	if err := s.Delete(ctx, "user", "token", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty storage, got %d keys", s.Len())
	}
}

func TestStorage_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStorage()
	if _, _, err := s.Get(ctx, "user"); !errors.Is(err, context.Canceled) {
		t.Errorf("get: expected context.Canceled, got %v", err)
	}
	if err := s.Set(ctx, "user", "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("set: expected context.Canceled, got %v", err)
	}
}

func TestFactory_OneStoragePerClient(t *testing.T) {
	f := NewFactory(0)
	ctx := context.Background()

	_ = f.For("a").Set(ctx, "token", "a-token")

	if _, ok, _ := f.For("b").Get(ctx, "token"); ok {
		t.Fatal("clients must not share storage")
	}
	if v, _, _ := f.For("a").Get(ctx, "token"); v != "a-token" {
		t.Fatalf("expected storage to survive lookups, got %q", v)
	}
}

func TestFactory_AnonymousClientsRetainNothing(t *testing.T) {
	f := NewFactory(0)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		s := f.For(fmt.Sprintf("anon-%d", i))
		if _, ok, err := s.Get(ctx, "user"); ok || err != nil {
			t.Fatalf("unexpected entry ok=%v err=%v", ok, err)
		}
		_ = s.Delete(ctx, "user", "token")
	}
	if f.Len() != 0 {
		t.Fatalf("expected no retained clients, got %d", f.Len())
	}
}

func TestFactory_DeletingLastKeyDropsClient(t *testing.T) {
	f := NewFactory(0)
	ctx := context.Background()
	s := f.For("c")

	_ = s.Set(ctx, "user", "{}")
	_ = s.Set(ctx, "token", "t")
	_ = s.Delete(ctx, "user")
	if f.Len() != 1 {
		t.Fatalf("expected client kept while a key remains, got %d", f.Len())
	}
	_ = s.Delete(ctx, "token")
	if f.Len() != 0 {
		t.Fatalf("expected client dropped, got %d", f.Len())
	}
}

func TestFactory_EntriesExpire(t *testing.T) {
	f := NewFactory(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }
	ctx := context.Background()

	_ = f.For("stale").Set(ctx, "token", "t1")
	now = now.Add(30 * time.Minute)
	_ = f.For("fresh").Set(ctx, "token", "t2")

	if dropped := f.Sweep(now.Add(45 * time.Minute)); dropped != 1 {
		t.Fatalf("expected 1 expired client, got %d", dropped)
	}
	if _, ok, _ := f.For("fresh").Get(ctx, "token"); !ok {
		t.Fatal("expected fresh client to survive the sweep")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := f.For("fresh").Get(ctx, "token"); ok {
		t.Fatal("expected expired entry to read as missing")
	}
	if f.Len() != 0 {
		t.Fatalf("expected expired client dropped on read, got %d", f.Len())
	}
}

func TestFactory_SetRefreshesExpiry(t *testing.T) {
	f := NewFactory(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }
	ctx := context.Background()
	s := f.For("c")

	_ = s.Set(ctx, "user", "{}")
	now = now.Add(50 * time.Minute)
	_ = s.Set(ctx, "token", "t")
	now = now.Add(50 * time.Minute)

	if _, ok, _ := s.Get(ctx, "user"); !ok {
		t.Fatal("expected user entry kept alive by the later write")
	}
}

type loginOnce struct{ user *domain.User }

func (a loginOnce) Login(context.Context, string, string) (*domain.AuthResult, error) {
	return &domain.AuthResult{User: a.user, Token: "token"}, nil
}

func (a loginOnce) Signup(context.Context, domain.SignupData) (*domain.AuthResult, error) {
	return nil, domain.ErrUserExists
}

func TestFactory_LogoutLeavesNoEntry(t *testing.T) {
	f := NewFactory(time.Hour)
	ctx := context.Background()
	store := session.New(f.For("client-1"),
		loginOnce{user: &domain.User{ID: 5, Email: "sarah.wilson@example.com", Role: domain.RoleCustomer}})
	store.Restore(ctx)

	if _, err := store.Login(ctx, "sarah.wilson@example.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("expected the session persisted, got %d clients", f.Len())
	}

	store.Logout(ctx)
	if f.Len() != 0 {
		t.Fatalf("expected no entry after logout, got %d clients", f.Len())
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	created, err := r.Create(ctx, &domain.User{Email: "Jane.Doe@Example.com", Role: domain.RoleTheaterOwner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 {
		t.Errorf("expected first id 1, got %d", created.ID)
	}

	found, err := r.FindByEmail(ctx, "jane.doe@example.com")
	if err != nil || found.ID != created.ID {
		t.Fatalf("find by email: %+v %v", found, err)
	}
	if _, err := r.FindByID(ctx, created.ID); err != nil {
		t.Fatalf("find by id: %v", err)
	}

	_, err = r.Create(ctx, &domain.User{Email: "JANE.DOE@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_ExplicitIDs(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	if u, _ := r.Create(ctx, &domain.User{ID: 5, Email: "a@x.com"}); u.ID != 5 {
		t.Fatalf("expected explicit id to be kept, got %d", u.ID)
	}
	if u, _ := r.Create(ctx, &domain.User{ID: 5, Email: "b@x.com"}); u.ID != 6 {
		t.Fatalf("expected next free id 6, got %d", u.ID)
	}
	if u, _ := r.Create(ctx, &domain.User{Email: "c@x.com"}); u.ID != 7 {
		t.Fatalf("expected sequential id 7, got %d", u.ID)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	r := NewUserRepository()
	if _, err := r.FindByEmail(context.Background(), "nobody@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := r.FindByID(context.Background(), 99); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
