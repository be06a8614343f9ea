package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moviehub/frontend-session/internal/core/ports"
)

type registryFixture struct {
	mu       sync.Mutex
	storages map[string]*stubStorage
	sizes    []int
}

func (f *registryFixture) factory(clientID string) ports.DurableStorage {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.storages[clientID]
	if !ok {
		st = newStubStorage()
		f.storages[clientID] = st
	}
	return st
}

func (f *registryFixture) onSize(n int) {
	f.mu.Lock()
	f.sizes = append(f.sizes, n)
	f.mu.Unlock()
}

func newFixture() *registryFixture {
	return &registryFixture{storages: make(map[string]*stubStorage)}
}

func waitReady(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("store never became ready")
	}
}

func TestRegistry_GetReturnsSameStorePerClient(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.factory, &stubAuth{}, RegistryConfig{OnSizeChange: f.onSize})

	a1 := r.Get("a")
	a2 := r.Get("a")
	b := r.Get("b")

	if a1 != a2 {
		t.Fatal("expected the same store for the same client")
	}
	if a1 == b {
		t.Fatal("expected distinct stores for distinct clients")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 live stores, got %d", r.Len())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sizes) != 2 || f.sizes[0] != 1 || f.sizes[1] != 2 {
		t.Errorf("unexpected size reports: %v", f.sizes)
	}
}

func TestRegistry_GetRestoresInBackground(t *testing.T) {
	f := newFixture()
	st := newStubStorage()
	storeUser(t, st, admin, "tok")
	f.storages["returning"] = st

	r := NewRegistry(f.factory, &stubAuth{}, RegistryConfig{})
	s := r.Get("returning")
	waitReady(t, s)

	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.CurrentUser.ID != admin.ID {
		t.Fatalf("expected restored session, got %+v", snap)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.factory, loginReturning(admin, "t"), RegistryConfig{})

	a := r.Get("a")
	b := r.Get("b")
	waitReady(t, a)
	waitReady(t, b)

	if _, err := a.Login(context.Background(), admin.Email, "admin123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if b.Snapshot().IsAuthenticated {
		t.Fatal("logging in one client must not affect another")
	}
	if f.storages["b"].has(ports.StorageKeyToken) {
		t.Fatal("storage must be per client")
	}
}

func TestRegistry_SweepEvictsIdleStores(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.factory, &stubAuth{}, RegistryConfig{IdleTTL: time.Minute, OnSizeChange: f.onSize})

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	old := r.Get("old")

	r.now = func() time.Time { return base.Add(50 * time.Second) }
	r.Get("fresh")

	if n := r.Sweep(base.Add(90 * time.Second)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live store, got %d", r.Len())
	}

	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if again := r.Get("old"); again == old {
		t.Fatal("an evicted client must get a new store")
	}
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(newFixture().factory, &stubAuth{}, RegistryConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
