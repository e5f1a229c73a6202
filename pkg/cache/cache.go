// Package cache provides content-addressed caching for resolved scenes.
//
// Resolution is deterministic: the same layout snapshot with the same
// options always produces the same resolved scene. That makes resolutions
// safe to cache by content hash. Backends:
//   - FileCache: directory-backed, for CLI usage
//   - RedisCache: shared cache for service deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries. Resolved scenes are pure functions of their
// inputs, so the TTL exists only to bound disk/redis growth.
const (
	// TTLScene is how long resolved scenes stay cached.
	TTLScene = 7 * 24 * time.Hour
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// SceneKeyOpts are the resolution options that affect the cached result.
// Two resolutions with the same layout hash but different options must not
// share a cache entry.
type SceneKeyOpts struct {
	GridStep      float64
	OverlapPasses int
	FootprintW    float64
	FootprintD    float64
	FootprintH    float64
	FloorFallback bool
}

// Keyer generates cache keys for resolution results.
type Keyer interface {
	// SceneKey generates a key for a resolved scene from the layout's
	// content hash and the resolution options.
	SceneKey(layoutHash string, opts SceneKeyOpts) string
}

// DefaultKeyer generates globally-scoped cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SceneKey implements Keyer.
func (k *DefaultKeyer) SceneKey(layoutHash string, opts SceneKeyOpts) string {
	return hashKey("scene", layoutHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so multiple tenants or
// environments can share one backend without key collisions.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SceneKey generates a prefixed key for a resolved scene.
func (k *ScopedKeyer) SceneKey(layoutHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(layoutHash, opts)
}
