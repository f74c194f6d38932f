// Package gallery drives paginated justified-row layout for a catalog.
//
// A [Controller] owns the pagination cursor and the current rows. It moves
// through three states:
//
//	Idle --RequestMore--> Loading --page packed--> Idle
//	                              --catalog done--> Exhausted
//	                              --fetch failed--> Idle
//
// Only one page is ever in flight. The trailing row of each page is left
// unscaled and re-packed together with the next page, so it can gain
// neighbours. Resizing rescales rows in place and never re-packs.
package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/layout"
	"github.com/matzehuels/lightbox/pkg/observability"
)

// State is the pagination state of a [Controller].
type State int

const (
	Idle State = iota
	Loading
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "loading":
		*s = Loading
	case "exhausted":
		*s = Exhausted
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown gallery state %q", b)
	}
	return nil
}

// Layout is a snapshot of the gallery.
type Layout struct {
	Rows            []layout.Row `json:"rows"`
	NextSourceIndex int          `json:"next_source_index"`
	Width           float64      `json:"width"`
	State           State        `json:"state"`
	Pages           int          `json:"pages"`
	NextBatch       int          `json:"next_batch"`
	Total           int          `json:"total"`
	Skipped         int          `json:"skipped"`
}

// Height returns the total height of all rows plus gap between rows.
func (l Layout) Height(gap float64) float64 {
	var h float64
	for i, r := range l.Rows {
		h += r.Height
		if i > 0 {
			h += gap
		}
	}
	return h
}

// Controller packs a catalog page by page. It is safe for concurrent use.
type Controller struct {
	src  catalog.Source
	opts Options

	mu      sync.Mutex
	state   State
	width   float64
	rows    []layout.Row
	images  []*catalog.Image
	seen    map[string]struct{}
	next    int
	batch   int
	pages   int
	total   int
	skipped int
	gen     uint64
}

// New creates a controller in the Idle state.
func New(src catalog.Source, opts Options) (*Controller, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "catalog source is required")
	}
	opts = opts.withDefaults()
	if _, err := ParseInvalidPolicy(string(opts.InvalidPolicy)); err != nil {
		return nil, err
	}
	if !(opts.Width > 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "container width must be positive, got %v", opts.Width)
	}
	c := &Controller{src: src, opts: opts}
	c.reset(opts.Width)
	return c, nil
}

func (c *Controller) reset(width float64) {
	c.gen++
	c.state = Idle
	c.width = width
	c.rows = nil
	c.images = nil
	c.seen = make(map[string]struct{})
	c.next = 0
	c.batch = c.opts.InitialBatch
	c.pages = 0
	c.total = 0
	c.skipped = 0
}

// State returns the current pagination state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Layout returns a deep copy of the current layout.
func (c *Controller) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Images returns every ingested image in catalog order, skipping dropped
// entries. This is the list the viewer navigates.
func (c *Controller) Images() []*catalog.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*catalog.Image(nil), c.images...)
}

func (c *Controller) snapshot() Layout {
	rows := make([]layout.Row, len(c.rows))
	for i, r := range c.rows {
		rows[i] = r.Clone()
	}
	return Layout{
		Rows:            rows,
		NextSourceIndex: c.next,
		Width:           c.width,
		State:           c.state,
		Pages:           c.pages,
		NextBatch:       c.batch,
		Total:           c.total,
		Skipped:         c.skipped,
	}
}

func (c *Controller) notify(l Layout) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(l)
	}
}

// RequestMore fetches and packs the next page. It reports whether a page
// was loaded; calls made while Loading or Exhausted return (false, nil).
//
// A failed fetch returns the controller to Idle with FETCH_FAILED. Under
// [PolicyAbort] an invalid image returns it to Idle with INVALID_IMAGE_DATA
// and leaves the cursor where it was.
//
// The batch size grows by BatchIncrement only after a page is packed, so a
// failed or rejected call retries with the same size.
func (c *Controller) RequestMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return false, nil
	}
	c.state = Loading
	offset, count, gen := c.next, c.batch, c.gen
	loading := c.snapshot()
	c.mu.Unlock()
	c.notify(loading)

	hooks := observability.Gallery()
	hooks.OnPageStart(ctx, offset, count)
	start := time.Now()

	page, fetchErr := c.src.FetchPage(ctx, offset, count)

	c.mu.Lock()
	if gen != c.gen {
		// Reset while the page was in flight.
		c.mu.Unlock()
		return false, nil
	}
	loaded, rowCount, err := c.apply(offset, page, fetchErr)
	snap := c.snapshot()
	c.mu.Unlock()

	hooks.OnPageComplete(ctx, offset, len(page.Images), rowCount, time.Since(start), err)
	c.notify(snap)
	return loaded, err
}

// apply merges a fetched page into the layout. Callers hold c.mu.
func (c *Controller) apply(offset int, page catalog.Page, fetchErr error) (bool, int, error) {
	logger := c.opts.Logger
	if fetchErr != nil {
		c.state = Idle
		logger.Warn("page fetch failed", "offset", offset, "err", fetchErr)
		if errors.Is(fetchErr, errors.ErrCodeFetchFailed) {
			return false, 0, fetchErr
		}
		return false, 0, errors.Wrap(errors.ErrCodeFetchFailed, fetchErr, "fetch page at offset %d", offset)
	}

	accepted := make([]*catalog.Image, 0, len(page.Images))
	seen := make(map[string]struct{}, len(page.Images))
	skipped := 0
	for i, img := range page.Images {
		err := c.check(img, seen)
		if err == nil {
			accepted = append(accepted, img)
			seen[img.ID] = struct{}{}
			continue
		}
		if c.opts.InvalidPolicy == PolicyAbort {
			c.state = Idle
			logger.Warn("page rejected", "offset", offset, "index", offset+i, "err", err)
			return false, 0, errors.AtIndex(offset+i, page.Total,
				errors.Wrap(errors.ErrCodeInvalidImageData, err, "catalog entry %d", offset+i))
		}
		skipped++
		logger.Warn("skipping invalid image", "index", offset+i, "err", err)
	}

	rows := c.rows
	var seed []*catalog.Image
	if n := len(rows); n > 0 && !rows[n-1].Committed {
		seed = rows[n-1].Images()
		rows = rows[:n-1]
	}
	input := append(seed, accepted...)
	res, err := layout.Pack(input, 0, c.width, c.opts.packOptions()...)
	if err != nil {
		c.state = Idle
		return false, 0, errors.Wrap(errors.ErrCodeInternal, err, "pack page at offset %d", offset)
	}

	c.rows = append(rows, res.Rows...)
	c.images = append(c.images, accepted...)
	for id := range seen {
		c.seen[id] = struct{}{}
	}
	c.skipped += skipped
	c.next = offset + len(page.Images)
	c.total = page.Total
	c.pages++
	c.batch += c.opts.BatchIncrement

	if len(page.Images) == 0 || c.next >= page.Total {
		c.state = Exhausted
	} else {
		c.state = Idle
	}
	logger.Debug("page packed", "offset", offset, "received", len(page.Images), "rows", len(c.rows), "state", c.state)
	return true, len(res.Rows), nil
}

func (c *Controller) check(img *catalog.Image, page map[string]struct{}) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if c.opts.RequireTiers {
		if err := img.ValidateTiers(); err != nil {
			return err
		}
	}
	_, dupPage := page[img.ID]
	_, dupPrev := c.seen[img.ID]
	if dupPage || dupPrev {
		return errors.New(errors.ErrCodeInvalidImageData, "duplicate image id %q", img.ID)
	}
	return nil
}

// OnViewportVisible requests the next page when the load-more sentinel is
// visible and the controller is Idle.
func (c *Controller) OnViewportVisible(ctx context.Context, visible bool) (bool, error) {
	if !visible {
		return false, nil
	}
	return c.RequestMore(ctx)
}

// OnContainerResize rescales every committed row to width and lays the
// trailing row out at its natural geometry. Row membership is unchanged.
// A resize during an in-flight fetch applies immediately; the fetched page
// is packed at whatever width is current when it arrives.
func (c *Controller) OnContainerResize(width float64) error {
	if !(width > 0) {
		return errors.New(errors.ErrCodeInvalidInput, "container width must be positive, got %v", width)
	}

	c.mu.Lock()
	opts := c.opts.packOptions()
	rows := make([]layout.Row, len(c.rows))
	for i, r := range c.rows {
		var err error
		if r.Committed {
			rows[i], err = layout.Rescale(r, width, opts...)
		} else {
			rows[i], err = layout.Natural(r, width, opts...)
		}
		if err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.rows = rows
	c.width = width
	snap := c.snapshot()
	c.mu.Unlock()

	observability.Gallery().OnResize(context.Background(), width, len(rows))
	c.notify(snap)
	return nil
}

// LoadAll requests pages until the catalog is exhausted.
func (c *Controller) LoadAll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		loaded, err := c.RequestMore(ctx)
		if err != nil {
			return err
		}
		switch c.State() {
		case Exhausted:
			return nil
		case Loading:
			if !loaded {
				return errors.New(errors.ErrCodeInvalidState, "another page request is in flight")
			}
		}
	}
}

// Reset discards all rows and returns to Idle at the start of the catalog.
// Used when the underlying catalog is reloaded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.reset(c.width)
	snap := c.snapshot()
	c.mu.Unlock()
	c.notify(snap)
}
