package gallery

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/layout"
)

// Default paging values.
const (
	DefaultInitialBatch   = 5
	DefaultBatchIncrement = 5
)

// InvalidPolicy decides what happens to a page containing an invalid image.
type InvalidPolicy string

const (
	// PolicySkip drops invalid images with a warning and packs the rest.
	PolicySkip InvalidPolicy = "skip"
	// PolicyAbort rejects the whole page with INVALID_IMAGE_DATA.
	PolicyAbort InvalidPolicy = "abort"
)

// ParseInvalidPolicy converts a string to an InvalidPolicy.
func ParseInvalidPolicy(s string) (InvalidPolicy, error) {
	switch p := InvalidPolicy(strings.ToLower(s)); p {
	case PolicySkip, PolicyAbort:
		return p, nil
	case "":
		return PolicySkip, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown invalid-image policy %q (want skip or abort)", s)
}

// Options configures a [Controller].
type Options struct {
	// Width is the initial container width. Required.
	Width float64

	// Divisor and Gap are passed to the row packer.
	Divisor float64
	Gap     float64

	// InitialBatch is the size of the first page; every later page is
	// BatchIncrement larger than the one before.
	InitialBatch   int
	BatchIncrement int

	InvalidPolicy InvalidPolicy

	// RequireTiers also rejects images without usable resolution tiers.
	RequireTiers bool

	Logger *log.Logger

	// OnChange receives a snapshot after every state change.
	OnChange func(Layout)
}

// DefaultOptions returns options for a container of the given width.
func DefaultOptions(width float64) Options {
	return Options{
		Width:          width,
		Divisor:        layout.DefaultDivisor,
		InitialBatch:   DefaultInitialBatch,
		BatchIncrement: DefaultBatchIncrement,
		InvalidPolicy:  PolicySkip,
	}
}

func (o Options) withDefaults() Options {
	if o.Divisor <= 0 {
		o.Divisor = layout.DefaultDivisor
	}
	if o.InitialBatch <= 0 {
		o.InitialBatch = DefaultInitialBatch
	}
	if o.BatchIncrement < 0 {
		o.BatchIncrement = DefaultBatchIncrement
	}
	if o.InvalidPolicy == "" {
		o.InvalidPolicy = PolicySkip
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

func (o Options) packOptions() []layout.Option {
	return []layout.Option{layout.WithDivisor(o.Divisor), layout.WithGap(o.Gap)}
}
