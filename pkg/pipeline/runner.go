package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete collect → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src catalog.Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Collect
	collectStart := time.Now()
	images, err := r.Collect(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	collectTime := time.Since(collectStart)
	r.Logger.Info("collected catalog", "images", len(images), "duration", collectTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, hash, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, images, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.CatalogHash = hash
	result.CacheInfo.LayoutHit = layoutHit
	layoutTime := time.Since(layoutStart)
	r.Logger.Info("computed layout",
		"rows", len(l.Rows),
		"skipped", l.Skipped,
		"cached", layoutHit,
		"duration", layoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	result.Stats = ComputeStats(l, opts)
	result.Stats.CollectTime = collectTime
	result.Stats.LayoutTime = layoutTime
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", result.Stats.RenderTime)

	return result, nil
}

// Collect reads every image from src in pages of [CollectPageSize].
func (r *Runner) Collect(ctx context.Context, src catalog.Source) ([]*catalog.Image, error) {
	var images []*catalog.Image
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := src.FetchPage(ctx, len(images), CollectPageSize)
		if err != nil {
			return nil, err
		}
		images = append(images, page.Images...)
		if len(page.Images) == 0 || len(images) >= page.Total {
			return images, nil
		}
	}
}

// CatalogHash hashes the collected images in their canonical JSON encoding.
func CatalogHash(images []*catalog.Image) (string, error) {
	data, err := catalog.Encode(images, catalog.FormatJSON)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// GenerateLayoutWithCacheInfo packs images until exhausted, with caching.
// It returns the layout, the catalog hash, and whether the layout was
// served from cache.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, images []*catalog.Image, opts Options) (gallery.Layout, string, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	hash, err := CatalogHash(images)
	if err != nil {
		return gallery.Layout{}, "", false, err
	}
	cacheKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := UnmarshalLayout(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return cached, hash, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		hooks.OnCacheMiss(ctx, "layout")
	}

	l, err := GenerateLayout(ctx, images, opts)
	if err != nil {
		return gallery.Layout{}, "", false, err
	}

	if data, err := RenderJSON(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, hash, false, nil
}

// GenerateLayout runs a gallery controller over images until the catalog
// is exhausted and returns its final snapshot.
func GenerateLayout(ctx context.Context, images []*catalog.Image, opts Options) (gallery.Layout, error) {
	opts.SetLayoutDefaults()
	ctrl, err := gallery.New(catalog.NewMemory(images), opts.GalleryOptions())
	if err != nil {
		return gallery.Layout{}, err
	}
	if err := ctrl.LoadAll(ctx); err != nil {
		return gallery.Layout{}, err
	}
	return ctrl.Layout(), nil
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l gallery.Layout, opts Options) (map[string][]byte, bool, error) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	layoutData, err := RenderJSON(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	hooks := observability.Cache()

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		hooks.OnCacheMiss(ctx, "artifact")
	}

	rendered, err := Render(l, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
