// Package viewer implements the full-screen image viewer state machine.
//
// A [Navigator] tracks the active image, per-image transition flags, arrow
// visibility and the resolution tier chosen by pkg/quality. Moving to
// another image tags the outgoing and incoming images with transitions and
// schedules a settle step after [DefaultSettleDelay]. Settling moves the
// active flag, recomputes the tier and resets the pan offset. A newer move
// supersedes a pending settle.
package viewer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/observability"
	"github.com/matzehuels/lightbox/pkg/quality"
)

// DefaultSettleDelay matches the length of the slide transition.
const DefaultSettleDelay = 500 * time.Millisecond

// Option configures a [Navigator].
type Option func(*Navigator)

// WithViewport sets the initial viewport size.
func WithViewport(width, height int) Option {
	return func(n *Navigator) { n.vw, n.vh = width, height }
}

// WithPreference sets the initial quality preference.
func WithPreference(p quality.Preference) Option {
	return func(n *Navigator) { n.pref = p }
}

// WithSettleDelay sets the settle delay. Zero settles synchronously.
func WithSettleDelay(d time.Duration) Option {
	return func(n *Navigator) { n.delay = max(d, 0) }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(n *Navigator) { n.logger = l }
}

// WithOnChange registers a callback receiving a snapshot after every change,
// including deferred settles.
func WithOnChange(fn func(State)) Option {
	return func(n *Navigator) { n.onChange = fn }
}

// Navigator is safe for concurrent use.
type Navigator struct {
	delay    time.Duration
	logger   *log.Logger
	onChange func(State)

	mu          sync.Mutex
	images      []*catalog.Image
	open        bool
	index       int
	flags       map[string]DisplayFlags
	pref        quality.Preference
	tier        catalog.TierName
	vw, vh      int
	arrowsShown bool
	pan         float64
	timer       *time.Timer
	gen         uint64
	settling    bool
}

// New creates a closed navigator over images.
func New(images []*catalog.Image, opts ...Option) *Navigator {
	n := &Navigator{
		delay:  DefaultSettleDelay,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		images: append([]*catalog.Image(nil), images...),
		flags:  make(map[string]DisplayFlags),
		pref:   quality.Auto,
		tier:   catalog.TierPreviewXXS,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns a snapshot.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshot()
}

// Images returns the navigated image list.
func (n *Navigator) Images() []*catalog.Image {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*catalog.Image(nil), n.images...)
}

// ActiveImage returns the image at the active index, or nil when the list
// is empty.
func (n *Navigator) ActiveImage() *catalog.Image {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current()
}

func (n *Navigator) current() *catalog.Image {
	if n.index < 0 || n.index >= len(n.images) {
		return nil
	}
	return n.images[n.index]
}

func (n *Navigator) snapshot() State {
	flags := make(map[string]DisplayFlags, len(n.flags))
	for k, v := range n.flags {
		flags[k] = v
	}
	s := State{
		Open:              n.open,
		ActiveIndex:       n.index,
		Count:             len(n.images),
		Flags:             flags,
		Preference:        n.pref,
		Tier:              n.tier,
		LeftArrowVisible:  n.open && n.arrowsShown && n.index > 0,
		RightArrowVisible: n.open && n.arrowsShown && n.index < len(n.images)-1,
		PanOffset:         n.pan,
		Settling:          n.settling,
		ViewportWidth:     n.vw,
		ViewportHeight:    n.vh,
	}
	if img := n.current(); img != nil {
		s.ActiveID = img.ID
		s.URL = img.TierURL(n.tier)
	}
	return s
}

// commit takes a snapshot, releases the lock and notifies the observer.
func (n *Navigator) commit() {
	snap := n.snapshot()
	n.mu.Unlock()
	if n.onChange != nil {
		n.onChange(snap)
	}
}

// Open shows the viewer at index.
func (n *Navigator) Open(index int) error {
	n.mu.Lock()
	if index < 0 || index >= len(n.images) {
		length := len(n.images)
		n.mu.Unlock()
		return errors.AtIndex(index, length,
			errors.New(errors.ErrCodeIndexOutOfRange, "index %d outside [0, %d)", index, length))
	}
	n.cancelSettle()
	n.open = true
	n.index = index
	n.flags = map[string]DisplayFlags{n.images[index].ID: {Active: true}}
	n.arrowsShown = true
	n.pan = 0
	n.updateQuality()
	n.logger.Debug("viewer opened", "index", index, "tier", n.tier)
	n.commit()
	return nil
}

// Navigate moves one image left (-1) or right (+1). It reports whether the
// index changed; moving past either end is a no-op. Swipes hide the arrows
// until the next keyboard or click navigation.
func (n *Navigator) Navigate(direction int, swipe bool) (bool, error) {
	if direction != -1 && direction != 1 {
		return false, errors.New(errors.ErrCodeInvalidInput, "direction must be -1 or 1, got %d", direction)
	}
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return false, errors.New(errors.ErrCodeInvalidState, "viewer is closed")
	}
	target := n.index + direction
	if target < 0 || target >= len(n.images) {
		n.mu.Unlock()
		return false, nil
	}
	n.arrowsShown = !swipe
	n.moveTo(target, direction, swipe)
	n.commit()
	return true, nil
}

// First jumps to the first image.
func (n *Navigator) First() (bool, error) { return n.jump(func(int) int { return 0 }, -1) }

// Last jumps to the last image.
func (n *Navigator) Last() (bool, error) { return n.jump(func(l int) int { return l - 1 }, 1) }

func (n *Navigator) jump(target func(length int) int, direction int) (bool, error) {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return false, errors.New(errors.ErrCodeInvalidState, "viewer is closed")
	}
	to := target(len(n.images))
	if to == n.index {
		n.mu.Unlock()
		return false, nil
	}
	n.arrowsShown = true
	n.moveTo(to, direction, false)
	n.commit()
	return true, nil
}

// moveTo tags transitions, moves the index and schedules the settle step.
// The outgoing image keeps its active flag until the settle.
func (n *Navigator) moveTo(target, direction int, swipe bool) {
	from := n.index
	out, in := transitions(direction)

	outID := n.images[from].ID
	f := n.flags[outID]
	f.Transition = out
	n.flags[outID] = f

	inID := n.images[target].ID
	g := n.flags[inID]
	g.Transition = in
	n.flags[inID] = g

	n.index = target
	observability.Viewer().OnNavigate(context.Background(), from, target, swipe)
	n.logger.Debug("viewer navigate", "from", from, "to", target, "swipe", swipe)
	n.scheduleSettle()
}

// scheduleSettle replaces any pending settle. Callers hold n.mu.
func (n *Navigator) scheduleSettle() {
	n.cancelSettle()
	if n.delay <= 0 {
		n.settle()
		return
	}
	gen := n.gen
	n.settling = true
	n.timer = time.AfterFunc(n.delay, func() {
		n.mu.Lock()
		if gen != n.gen {
			n.mu.Unlock()
			return
		}
		n.settle()
		n.commit()
	})
}

// cancelSettle invalidates any pending settle. A timer that already fired
// sees a stale generation and returns without touching state.
func (n *Navigator) cancelSettle() {
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.settling = false
}

func (n *Navigator) settle() {
	n.timer = nil
	n.settling = false
	img := n.current()
	if img == nil {
		return
	}
	in := n.flags[img.ID]
	n.flags = map[string]DisplayFlags{img.ID: {Active: true, Transition: in.Transition}}
	n.pan = 0
	n.updateQuality()
}

func (n *Navigator) updateQuality() {
	img := n.current()
	if img == nil {
		return
	}
	n.tier = quality.Select(n.pref, n.vw, n.vh, img.Tiers)
	observability.Viewer().OnTierSelected(context.Background(), n.index, string(n.tier))
}

// Close hides the viewer, cancels any pending settle and clears all flags.
// The active index is kept.
func (n *Navigator) Close() {
	n.mu.Lock()
	n.cancelSettle()
	n.open = false
	n.flags = make(map[string]DisplayFlags)
	n.pan = 0
	n.commit()
}

// SetPreference stores pref and recomputes the tier immediately.
func (n *Navigator) SetPreference(pref quality.Preference) error {
	if _, err := quality.ParsePreference(string(pref)); err != nil {
		return err
	}
	n.mu.Lock()
	n.pref = pref
	n.updateQuality()
	n.commit()
	return nil
}

// Resize updates the viewport and recomputes the tier immediately.
func (n *Navigator) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %dx%d", width, height)
	}
	n.mu.Lock()
	n.vw, n.vh = width, height
	if n.open {
		n.updateQuality()
	}
	n.commit()
	return nil
}

// Pan sets the live drag offset. It is cosmetic and reset on settle.
func (n *Navigator) Pan(px float64) error {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidState, "viewer is closed")
	}
	n.pan = px
	n.commit()
	return nil
}

// SetImages replaces the image list, for example after the gallery loaded
// another page. The active index is kept and clamped to the new length;
// flags of images no longer present are dropped. If that removes the active
// image, the image now at the active index settles immediately.
func (n *Navigator) SetImages(images []*catalog.Image) {
	n.mu.Lock()
	n.images = append([]*catalog.Image(nil), images...)

	present := make(map[string]struct{}, len(n.images))
	for _, img := range n.images {
		present[img.ID] = struct{}{}
	}
	for id := range n.flags {
		if _, ok := present[id]; !ok {
			delete(n.flags, id)
		}
	}

	switch {
	case len(n.images) == 0:
		n.cancelSettle()
		n.open = false
		n.index = 0
		n.flags = make(map[string]DisplayFlags)
	case n.index >= len(n.images):
		n.index = len(n.images) - 1
		if n.open {
			n.cancelSettle()
			n.settle()
		}
	case n.open && !n.hasActive():
		// The active image was replaced; a pending transition has nothing to
		// leave from.
		n.cancelSettle()
		n.settle()
	}
	n.commit()
}

func (n *Navigator) hasActive() bool {
	for _, f := range n.flags {
		if f.Active {
			return true
		}
	}
	return false
}

// FullsizeURL returns the URL of the active image's raw tier, or the image
// URL when no raw tier is recorded.
func (n *Navigator) FullsizeURL() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return "", errors.New(errors.ErrCodeInvalidState, "viewer is closed")
	}
	return n.current().TierURL(catalog.TierRaw), nil
}
