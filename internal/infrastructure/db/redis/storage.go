package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moviehub/frontend-session/internal/core/ports"
)

const keyPrefix = "session"

// Storage keeps one client's durable session entries in Redis.
// Key format: session:<client_id>:<key>
type Storage struct {
	client   redis.UniversalClient
	clientID string
	ttl      time.Duration
}

// NewStorage returns the storage for clientID. Every write refreshes the
// expiry of the client's entries to ttl; zero means they never expire.
func NewStorage(client redis.UniversalClient, clientID string, ttl time.Duration) *Storage {
	return &Storage{client: client, clientID: clientID, ttl: ttl}
}

// Factory returns a ports.StorageFactory handing out Redis-backed storage.
func Factory(client redis.UniversalClient, ttl time.Duration) ports.StorageFactory {
	return func(clientID string) ports.DurableStorage {
		return NewStorage(client, clientID, ttl)
	}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, s.ttl)
		if s.ttl > 0 {
			for _, other := range []string{ports.StorageKeyUser, ports.StorageKeyToken} {
				if other != key {
					pipe.Expire(ctx, s.key(other), s.ttl)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *Storage) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, s.clientID, k)
}
