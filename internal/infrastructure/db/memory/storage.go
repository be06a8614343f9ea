// Package memory holds in-process implementations of the storage ports, used
// for single-instance deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/moviehub/frontend-session/internal/core/ports"
)

// Storage is a DurableStorage kept in a map. It lives as long as the process.
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewStorage() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Factory keeps durable session entries for every client in one map. A
// client has an entry only while it has something stored: deleting its last
// key drops it, and entries not written for longer than the TTL expire.
type Factory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	clients map[string]*clientEntry
}

type clientEntry struct {
	data    map[string]string
	expires time.Time // zero when the factory has no TTL
}

// NewFactory returns an empty factory. A non-positive ttl keeps entries
// until they are deleted.
func NewFactory(ttl time.Duration) *Factory {
	return &Factory{
		ttl:     ttl,
		now:     time.Now,
		clients: make(map[string]*clientEntry),
	}
}

// For implements ports.StorageFactory. The returned handle allocates
// nothing until the first Set.
func (f *Factory) For(clientID string) ports.DurableStorage {
	return &clientStorage{f: f, id: clientID}
}

// Len returns the number of clients with stored entries.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Sweep drops entries expired at now and returns how many were dropped.
func (f *Factory) Sweep(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	dropped := 0
	for id, e := range f.clients {
		if e.expiredAt(now) {
			delete(f.clients, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is cancelled.
func (f *Factory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			f.Sweep(t)
		}
	}
}

func (e *clientEntry) expiredAt(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// lookup returns the live entry for id, dropping it if it has expired.
// Callers hold f.mu.
func (f *Factory) lookup(id string) *clientEntry {
	e, ok := f.clients[id]
	if !ok {
		return nil
	}
	if e.expiredAt(f.now()) {
		delete(f.clients, id)
		return nil
	}
	return e
}

type clientStorage struct {
	f  *Factory
	id string
}

func (s *clientStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	e := s.f.lookup(s.id)
	if e == nil {
		return "", false, nil
	}
	v, ok := e.data[key]
	return v, ok, nil
}

// Set stores value and, like the redis backend, refreshes the expiry of
// every entry the client has.
func (s *clientStorage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	e := s.f.lookup(s.id)
	if e == nil {
		e = &clientEntry{data: make(map[string]string)}
		s.f.clients[s.id] = e
	}
	e.data[key] = value
	if s.f.ttl > 0 {
		e.expires = s.f.now().Add(s.f.ttl)
	}
	return nil
}

func (s *clientStorage) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	e := s.f.lookup(s.id)
	if e == nil {
		return nil
	}
	for _, k := range keys {
		delete(e.data, k)
	}
	if len(e.data) == 0 {
		delete(s.f.clients, s.id)
	}
	return nil
}
