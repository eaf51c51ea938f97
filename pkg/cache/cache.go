// Package cache provides byte-oriented caching with pluggable backends.
//
// The cache sits in front of slow or repeated lookups: tile-store existence
// checks, pyramid metadata reads, and marker discovery queries. Three
// backends are provided:
//   - file: directory-backed cache for CLI usage
//   - redis: shared cache for hosted vaults
//   - null: no-op cache for tests or when caching is disabled
//
// Entries are opaque byte slices with an optional TTL. A TTL of zero means
// the entry never expires.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value from the cache.
	// The second return value reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value from the cache. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs for the cached lookups Atlas performs.
const (
	// TTLMetadata is how long pyramid metadata stays cached. Pyramids are
	// immutable once written, so this is generous.
	TTLMetadata = 24 * time.Hour

	// TTLDiscovery is how long per-entity-type discovery query results stay
	// cached. Short, because vault documents change under the user's hands.
	TTLDiscovery = 30 * time.Second
)
