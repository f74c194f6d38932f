package catalog

import (
	"context"
	"time"

	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/httputil"
	"github.com/matzehuels/lightbox/pkg/observability"
)

// HTTP serves images from a catalog document fetched over HTTP.
//
// The whole document is fetched and cached on every page request that
// misses the cache, mirroring how a static gallery re-reads its data file.
// Pages are then sliced from the decoded list.
type HTTP struct {
	url      string
	format   Format
	client   *httputil.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	attempts int
	delay    time.Duration
}

// HTTPOption configures an [HTTP] source.
type HTTPOption func(*HTTP)

// WithCache stores fetched documents in c under the keyer's catalog key.
func WithCache(c cache.Cache, k cache.Keyer) HTTPOption {
	return func(h *HTTP) {
		h.cache = c
		if k != nil {
			h.keyer = k
		}
	}
}

// WithCacheTTL overrides [cache.TTLCatalog].
func WithCacheTTL(ttl time.Duration) HTTPOption {
	return func(h *HTTP) { h.ttl = ttl }
}

// WithRetry retries transient failures up to attempts times. The default
// is a single attempt.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.attempts = attempts
		h.delay = delay
	}
}

// WithClient sets the HTTP client.
func WithClient(c *httputil.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithDocumentFormat forces the document format.
func WithDocumentFormat(f Format) HTTPOption {
	return func(h *HTTP) { h.format = f }
}

// NewHTTP returns a source for the document at url.
func NewHTTP(url string, opts ...HTTPOption) (*HTTP, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	h := &HTTP{
		url:      url,
		format:   FormatFromPath(url),
		client:   httputil.NewClient(0, map[string]string{"Accept": "application/json, application/yaml"}),
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		ttl:      cache.TTLCatalog,
		attempts: 1,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// FetchPage implements [Source]. Failures are reported as FETCH_FAILED.
func (h *HTTP) FetchPage(ctx context.Context, offset, count int) (Page, error) {
	images, err := h.load(ctx)
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch catalog page at offset %d", offset)
	}
	return slicePage(images, offset, count)
}

// Document returns the raw catalog bytes, from cache when possible.
func (h *HTTP) Document(ctx context.Context) ([]byte, error) {
	key := h.keyer.CatalogKey(h.url)
	hooks := observability.Cache()
	if data, ok, err := h.cache.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, "catalog")
		return data, nil
	}
	hooks.OnCacheMiss(ctx, "catalog")

	var data []byte
	err := httputil.Retry(ctx, h.attempts, h.delay, func() error {
		var err error
		data, err = h.client.GetBytes(ctx, h.url)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := h.cache.Set(ctx, key, data, h.ttl); err == nil {
		hooks.OnCacheSet(ctx, "catalog", len(data))
	}
	return data, nil
}

func (h *HTTP) load(ctx context.Context) ([]*Image, error) {
	data, err := h.Document(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data, h.format)
}

var _ Source = (*HTTP)(nil)
