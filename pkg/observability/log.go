package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// The CLI registers it when --verbose is set.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through l.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{logger: l}
}

// Register installs h for every hook category.
func (h *LogHooks) Register() {
	SetGalleryHooks(h)
	SetViewerHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnPageStart(_ context.Context, offset, count int) {
	h.logger.Debug("page requested", "offset", offset, "count", count)
}

func (h *LogHooks) OnPageComplete(_ context.Context, offset, received, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("page failed", "offset", offset, "err", err, "duration", d)
		return
	}
	h.logger.Debug("page packed", "offset", offset, "received", received, "rows", rows, "duration", d)
}

func (h *LogHooks) OnResize(_ context.Context, width float64, rows int) {
	h.logger.Debug("rows rescaled", "width", width, "rows", rows)
}

func (h *LogHooks) OnNavigate(_ context.Context, from, to int, swipe bool) {
	h.logger.Debug("viewer navigated", "from", from, "to", to, "swipe", swipe)
}

func (h *LogHooks) OnTierSelected(_ context.Context, index int, tier string) {
	h.logger.Debug("tier selected", "index", index, "tier", tier)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ GalleryHooks = (*LogHooks)(nil)
	_ ViewerHooks  = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)
