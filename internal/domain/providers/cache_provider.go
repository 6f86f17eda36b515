package providers

import (
	"context"
	"errors"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

// ErrCacheMiss is returned by CacheProvider.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for remote byte-level caching
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error
}

// ResultCache memoizes search results by request fingerprint.
//
// Get never returns an entry older than the configured TTL. Put failures are
// absorbed by the implementation; a search must not fail because its result
// could not be cached.
type ResultCache interface {
	Get(ctx context.Context, key string) (*entities.CacheEntry, bool)
	Put(ctx context.Context, key string, bundle *entities.ResultBundle)
}
