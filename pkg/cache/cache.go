// Package cache provides byte-level caching for catalog documents, computed
// gallery layouts and rendered artifacts.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entry files under ~/.cache/lightbox/ for CLI usage
//   - [RedisCache]: a shared Redis instance for the HTTP server
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that every cache entry is derived from
// the inputs that determine it (catalog content hash, container width,
// packing divisor, gap, and so on).
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	// TTLCatalog bounds how long a fetched catalog document is reused.
	// Catalogs change when photos are added, so this is short.
	TTLCatalog = 10 * time.Minute

	// TTLLayout is the lifetime of a computed layout. Layouts are a pure
	// function of their key, so they only expire to bound disk usage.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of a rendered artifact (JSON, SVG).
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the cached data and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
