// Package config loads lightbox settings.
//
// Values are resolved in order, later sources winning:
//
//  1. [Default]
//  2. a TOML file (lightbox.toml)
//  3. LIGHTBOX_* environment variables, including those loaded from .env
//  4. command-line flags (applied by the CLI)
package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/layout"
	"github.com/matzehuels/lightbox/pkg/quality"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

// FileName is the config file looked up in the user config directory.
const FileName = "lightbox.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds every tunable setting.
type Config struct {
	Gallery GalleryConfig `toml:"gallery"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Catalog CatalogConfig `toml:"catalog"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
}

// GalleryConfig configures row packing and paging.
type GalleryConfig struct {
	Width          float64 `toml:"width"`
	Divisor        float64 `toml:"divisor"`
	Gap            float64 `toml:"gap"`
	InitialBatch   int     `toml:"initial_batch"`
	BatchIncrement int     `toml:"batch_increment"`
	InvalidPolicy  string  `toml:"invalid_policy"`
	RequireTiers   bool    `toml:"require_tiers"`
}

// ViewerConfig configures the full-screen viewer.
type ViewerConfig struct {
	Width       int           `toml:"width"`
	Height      int           `toml:"height"`
	Quality     string        `toml:"quality"`
	SettleDelay time.Duration `toml:"settle_delay"`
}

// CatalogConfig configures catalog sources.
type CatalogConfig struct {
	RetryAttempts   int    `toml:"retry_attempts"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ServerConfig configures `lightbox serve`.
type ServerConfig struct {
	Addr       string        `toml:"addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Gallery: GalleryConfig{
			Width:          1200,
			Divisor:        layout.DefaultDivisor,
			InitialBatch:   gallery.DefaultInitialBatch,
			BatchIncrement: gallery.DefaultBatchIncrement,
			InvalidPolicy:  string(gallery.PolicySkip),
		},
		Viewer: ViewerConfig{
			Width:       1920,
			Height:      1080,
			Quality:     string(quality.Auto),
			SettleDelay: viewer.DefaultSettleDelay,
		},
		Catalog: CatalogConfig{
			RetryAttempts:   1,
			MongoDatabase:   catalog.DefaultMongoDatabase,
			MongoCollection: catalog.DefaultMongoCollection,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
		},
	}
}

// DefaultPath returns the user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lightbox", FileName), nil
}

// Load resolves defaults, the config file at path and the environment.
// An empty path looks in [DefaultPath] and tolerates a missing file; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, mustExist bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	g := c.Gallery
	if !(g.Width > 0) || !(g.Divisor > 0) || g.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gallery: width and divisor must be positive and gap non-negative")
	}
	if g.InitialBatch <= 0 || g.BatchIncrement < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gallery: initial_batch must be positive and batch_increment non-negative")
	}
	if _, err := gallery.ParseInvalidPolicy(g.InvalidPolicy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "gallery.invalid_policy")
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 || c.Viewer.SettleDelay < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "viewer: viewport must be positive and settle_delay non-negative")
	}
	if _, err := quality.ParsePreference(c.Viewer.Quality); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "viewer.quality")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Catalog.RetryAttempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "catalog.retry_attempts must be at least 1")
	}
	return nil
}

// GalleryOptions converts the gallery section to controller options.
func (c Config) GalleryOptions() gallery.Options {
	policy, _ := gallery.ParseInvalidPolicy(c.Gallery.InvalidPolicy)
	return gallery.Options{
		Width:          c.Gallery.Width,
		Divisor:        c.Gallery.Divisor,
		Gap:            c.Gallery.Gap,
		InitialBatch:   c.Gallery.InitialBatch,
		BatchIncrement: c.Gallery.BatchIncrement,
		InvalidPolicy:  policy,
		RequireTiers:   c.Gallery.RequireTiers,
	}
}

// ViewerOptions converts the viewer section to navigator options.
func (c Config) ViewerOptions() []viewer.Option {
	pref, err := quality.ParsePreference(c.Viewer.Quality)
	if err != nil {
		pref = quality.Auto
	}
	return []viewer.Option{
		viewer.WithViewport(c.Viewer.Width, c.Viewer.Height),
		viewer.WithPreference(pref),
		viewer.WithSettleDelay(c.Viewer.SettleDelay),
	}
}

// CatalogOptions returns options for [catalog.Open].
func (c Config) CatalogOptions(cc cache.Cache) catalog.OpenOptions {
	return catalog.OpenOptions{
		Cache:         cc,
		Keyer:         cache.NewDefaultKeyer(),
		RetryAttempts: c.Catalog.RetryAttempts,
		Mongo: catalog.MongoConfig{
			Database:   c.Catalog.MongoDatabase,
			Collection: c.Catalog.MongoCollection,
		},
	}
}

// OpenCache creates the configured cache backend.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
	default:
		return cache.NewFileCache(c.Cache.Dir)
	}
}
