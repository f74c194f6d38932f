// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup to receive events about page loads,
// resizes, viewer navigation, cache operations, and catalog HTTP requests.
// Library packages only ever call the registered hooks, so they never depend
// on a metrics or tracing backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGalleryHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Gallery().OnPageStart(ctx, offset, count)
//	// ... fetch and pack ...
//	observability.Gallery().OnPageComplete(ctx, offset, received, rows, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Gallery Hooks
// =============================================================================

// GalleryHooks receives events from the gallery layout controller.
type GalleryHooks interface {
	// OnPageStart fires when a page request leaves the Idle state.
	OnPageStart(ctx context.Context, offset, count int)

	// OnPageComplete fires when a page has been packed or has failed.
	OnPageComplete(ctx context.Context, offset, received, rows int, duration time.Duration, err error)

	// OnResize fires after committed rows were rescaled to a new width.
	OnResize(ctx context.Context, width float64, rows int)
}

// =============================================================================
// Viewer Hooks
// =============================================================================

// ViewerHooks receives events from the viewer navigator.
type ViewerHooks interface {
	// OnNavigate fires when the active index changes.
	OnNavigate(ctx context.Context, from, to int, swipe bool)

	// OnTierSelected fires whenever the quality tier is recomputed.
	OnTierSelected(ctx context.Context, index int, tier string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from catalog HTTP requests.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGalleryHooks is a no-op implementation of GalleryHooks.
type NoopGalleryHooks struct{}

func (NoopGalleryHooks) OnPageStart(context.Context, int, int)                              {}
func (NoopGalleryHooks) OnPageComplete(context.Context, int, int, int, time.Duration, error) {}
func (NoopGalleryHooks) OnResize(context.Context, float64, int)                             {}

// NoopViewerHooks is a no-op implementation of ViewerHooks.
type NoopViewerHooks struct{}

func (NoopViewerHooks) OnNavigate(context.Context, int, int, bool)  {}
func (NoopViewerHooks) OnTierSelected(context.Context, int, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	galleryHooks GalleryHooks = NoopGalleryHooks{}
	viewerHooks  ViewerHooks  = NoopViewerHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetGalleryHooks registers custom gallery hooks.
// This should be called once at application startup.
func SetGalleryHooks(h GalleryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		galleryHooks = h
	}
}

// SetViewerHooks registers custom viewer hooks.
func SetViewerHooks(h ViewerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Gallery returns the registered gallery hooks.
func Gallery() GalleryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return galleryHooks
}

// Viewer returns the registered viewer hooks.
func Viewer() ViewerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	galleryHooks = NoopGalleryHooks{}
	viewerHooks = NoopViewerHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
