// Package cache stores pipeline outputs between runs.
//
// # Backends
//
// [FileCache] keeps entries as JSON files below a directory (the CLI uses
// the XDG cache dir), [RedisCache] shares entries between server replicas
// and [NullCache] disables caching altogether. All of them implement
// [Cache].
//
// # Keys
//
// Keys are derived by a [Keyer] from content hashes, never from file
// names, so a changed dataset or registry yields a new key:
//
//	graphHash := cache.Hash(canonicalGraph)
//	key := keyer.LayoutKey(graphHash, reg.Fingerprint(), cache.LayoutKeyOpts{Datacenter: "npc"})
//
// [ScopedKeyer] prefixes every key, which separates tenants that share one
// Redis instance.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A zero ttl on Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Entry lifetimes.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// LayoutKeyOpts holds every option that changes a layout document.
type LayoutKeyOpts struct {
	Datacenter string `json:"datacenter,omitempty"`
	Seed       uint64 `json:"seed"`
	SubLayout  string `json:"sub_layout,omitempty"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Detailed     bool    `json:"detailed,omitempty"`
	HidePairs    bool    `json:"hide_pairs,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	LayerSpacing float64 `json:"layer_spacing,omitempty"`
	Skew         float64 `json:"skew,omitempty"`
	// Registry is the registry fingerprint; drawings use its link styles.
	Registry string `json:"registry,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies one layout view of a graph under a registry.
	LayoutKey(graphHash, registryHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies one rendering of a layout document.
	ArtifactKey(documentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash, registryHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, registryHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", documentHash, opts)
}
