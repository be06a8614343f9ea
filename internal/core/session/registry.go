package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviehub/frontend-session/internal/core/ports"
)

const defaultIdleTTL = 30 * time.Minute

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// IdleTTL is how long an untouched store is kept in memory.
	IdleTTL time.Duration
	// StoreOptions are applied to every store the registry creates.
	StoreOptions []Option
	// OnSizeChange, when set, is called with the number of live stores.
	OnSizeChange func(live int)
	Log          zerolog.Logger
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry keeps one Store per client ID. Each store is restored in the
// background the first time its client is seen. Evicting an idle store
// leaves its durable storage alone, so a returning client restores again.
type Registry struct {
	storage ports.StorageFactory
	auth    ports.AuthService
	cfg     RegistryConfig
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(storage ports.StorageFactory, auth ports.AuthService, cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Registry{
		storage: storage,
		auth:    auth,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the store for clientID, creating and restoring it if needed.
func (r *Registry) Get(clientID string) *Store {
	r.mu.Lock()
	now := r.now()
	if e, ok := r.entries[clientID]; ok {
		e.lastSeen = now
		r.mu.Unlock()
		return e.store
	}

	opts := append([]Option{WithLogger(r.cfg.Log.With().Str("client_id", clientID).Logger())}, r.cfg.StoreOptions...)
	store := New(r.storage(clientID), r.auth, opts...)
	r.entries[clientID] = &entry{store: store, lastSeen: now}
	live := len(r.entries)
	r.mu.Unlock()

	r.reportSize(live)
	go store.Restore(context.Background())
	return store
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts stores idle since before now-IdleTTL and returns how many
// were dropped.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	evicted := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	live := len(r.entries)
	r.mu.Unlock()

	if evicted > 0 {
		r.cfg.Log.Debug().Int("evicted", evicted).Int("live", live).Msg("idle sessions evicted")
		r.reportSize(live)
	}
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
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
			r.Sweep(t)
		}
	}
}

func (r *Registry) reportSize(live int) {
	if r.cfg.OnSizeChange != nil {
		r.cfg.OnSizeChange(live)
	}
}
