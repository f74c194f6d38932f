package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys from the inputs that determine a cached value.
type Keyer interface {
	// CatalogKey keys a fetched catalog document by its source location.
	CatalogKey(source string) string

	// LayoutKey keys a full gallery layout by catalog content and options.
	LayoutKey(catalogHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by layout content and format.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a computed layout.
type LayoutKeyOpts struct {
	Width          float64 `json:"width"`
	Divisor        float64 `json:"divisor"`
	Gap            float64 `json:"gap"`
	InitialBatch   int     `json:"initial_batch"`
	BatchIncrement int     `json:"batch_increment"`
	InvalidPolicy  string  `json:"invalid_policy"`
	RequireTiers   bool    `json:"require_tiers"`
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CatalogKey returns "catalog:<source>". Sources are URLs or file paths and
// are kept readable so `cache clear` output is meaningful in Redis.
func (DefaultKeyer) CatalogKey(source string) string {
	return "catalog:" + source
}

// LayoutKey hashes the catalog hash together with the layout options.
func (DefaultKeyer) LayoutKey(catalogHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", catalogHash, opts)
}

// ArtifactKey hashes the layout hash together with the artifact options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data. Catalog and layout hashes use it so
// that equal content always maps to equal keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<sha256 of the JSON-encoded parts>". Options
// structs encode with stable field order, so equal options hash equally.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Encoding plain strings and option structs cannot fail.
		_ = enc.Encode(p)
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
