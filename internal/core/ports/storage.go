package ports

import "context"

// Keys of the two durable session entries.
const (
	StorageKeyUser  = "user"
	StorageKeyToken = "token"
)

// DurableStorage is a persistent string key-value store owned by exactly one
// session. Get reports found=false for a missing key rather than an error.
type DurableStorage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// StorageFactory returns the storage namespace of a single browsing context.
type StorageFactory func(clientID string) DurableStorage
