package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/moviehub/frontend-session/internal/core/ports"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStorage_RoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	s := NewStorage(client, "abc", 0)

	if _, ok, err := s.Get(ctx, ports.StorageKeyUser); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, ports.StorageKeyUser, `{"id":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, ports.StorageKeyUser)
	if err != nil || !ok || v != `{"id":1}` {
		t.Fatalf("unexpected get %q ok=%v err=%v", v, ok, err)
	}
	if !mr.Exists("session:abc:user") {
		t.Fatal("expected namespaced key session:abc:user")
	}
	if ttl := mr.TTL("session:abc:user"); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}
}

func TestStorage_TTLRefreshedOnWrite(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	s := NewStorage(client, "abc", time.Hour)

	_ = s.Set(ctx, ports.StorageKeyToken, "t")
	mr.FastForward(50 * time.Minute)
	_ = s.Set(ctx, ports.StorageKeyUser, "{}")

	if ttl := mr.TTL("session:abc:token"); ttl != time.Hour {
		t.Fatalf("expected sibling ttl to be refreshed to 1h, got %v", ttl)
	}

	mr.FastForward(61 * time.Minute)
	if _, ok, _ := s.Get(ctx, ports.StorageKeyToken); ok {
		t.Fatal("expected entries to expire")
	}
}

func TestStorage_Delete(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	s := NewStorage(client, "abc", 0)

	_ = s.Set(ctx, ports.StorageKeyUser, "{}")
	_ = s.Set(ctx, ports.StorageKeyToken, "t")

	if err := s.Delete(ctx, ports.StorageKeyUser, ports.StorageKeyToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("session:abc:user") || mr.Exists("session:abc:token") {
		t.Fatal("expected both keys deleted")
	}
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
}

func TestFactory_IsolatesClients(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	f := Factory(client, 0)

	_ = f("a").Set(ctx, ports.StorageKeyToken, "a")
	if _, ok, _ := f("b").Get(ctx, ports.StorageKeyToken); ok {
		t.Fatal("clients must not share keys")
	}
}

func TestStorage_ReportsConnectionErrors(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	s := NewStorage(client, "abc", 0)
	if _, _, err := s.Get(context.Background(), ports.StorageKeyUser); err == nil {
		t.Fatal("expected error from a closed server")
	}
}

func TestConnect(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected ping failure")
	}
}
