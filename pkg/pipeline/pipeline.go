// Package pipeline computes a complete gallery layout for a catalog and
// renders it to artifacts.
//
// The pipeline is what `lightbox layout` and the server's GET /layout share.
// It runs three stages:
//
//  1. Collect: page through a [catalog.Source] until every image is read
//  2. Layout: feed the images through a [gallery.Controller] until exhausted
//  3. Render: encode the rows as JSON or draw an SVG wireframe
//
// Layouts are cached by catalog content hash plus every option that changes
// the packing, and artifacts by layout hash plus format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{
//	    Width:   1200,
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and server
// =============================================================================

const (
	// DefaultWidth is the default container width in pixels.
	DefaultWidth = 1200.0

	// CollectPageSize is how many images the collect stage requests at once.
	// It is independent of the gallery's own page sizes, which only matter
	// for how trailing rows are re-packed.
	CollectPageSize = 200
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Width          float64 `json:"width,omitempty"`
	Divisor        float64 `json:"divisor,omitempty"`
	Gap            float64 `json:"gap,omitempty"`
	InitialBatch   int     `json:"initial_batch,omitempty"`
	BatchIncrement int     `json:"batch_increment,omitempty"`
	InvalidPolicy  string  `json:"invalid_policy,omitempty"`
	RequireTiers   bool    `json:"require_tiers,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses the layout and artifact caches.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the fully exhausted gallery layout.
	Layout gallery.Layout

	// CatalogHash is the content hash of the collected catalog.
	CatalogHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width < 0 {
		return fmt.Errorf("width must be positive, got %g", o.Width)
	}
	if o.Gap < 0 {
		return fmt.Errorf("gap must not be negative, got %g", o.Gap)
	}
	if o.InvalidPolicy != "" {
		if _, err := gallery.ParseInvalidPolicy(o.InvalidPolicy); err != nil {
			return err
		}
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills zero layout options from the gallery defaults.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Divisor == 0 {
		o.Divisor = layout.DefaultDivisor
	}
	if o.InitialBatch == 0 {
		o.InitialBatch = gallery.DefaultInitialBatch
	}
	if o.BatchIncrement == 0 {
		o.BatchIncrement = gallery.DefaultBatchIncrement
	}
	if o.InvalidPolicy == "" {
		o.InvalidPolicy = string(gallery.PolicySkip)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// GalleryOptions converts the layout options for a [gallery.Controller].
func (o *Options) GalleryOptions() gallery.Options {
	return gallery.Options{
		Width:          o.Width,
		Divisor:        o.Divisor,
		Gap:            o.Gap,
		InitialBatch:   o.InitialBatch,
		BatchIncrement: o.BatchIncrement,
		InvalidPolicy:  gallery.InvalidPolicy(o.InvalidPolicy),
		RequireTiers:   o.RequireTiers,
		Logger:         o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:          o.Width,
		Divisor:        o.Divisor,
		Gap:            o.Gap,
		InitialBatch:   o.InitialBatch,
		BatchIncrement: o.BatchIncrement,
		InvalidPolicy:  o.InvalidPolicy,
		RequireTiers:   o.RequireTiers,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}

// Stats contains layout statistics and stage timings.
type Stats struct {
	Images  int     `json:"images"`
	Rows    int     `json:"rows"`
	Skipped int     `json:"skipped"`
	Height  float64 `json:"height"`

	// Row height distribution over committed rows.
	RowHeightMean   float64 `json:"row_height_mean"`
	RowHeightStdDev float64 `json:"row_height_stddev"`
	RowHeightMin    float64 `json:"row_height_min"`
	RowHeightMax    float64 `json:"row_height_max"`

	// MeanIdealError is the mean absolute distance of committed rows from
	// the ideal row height.
	MeanIdealError float64 `json:"mean_ideal_error"`

	CollectTime time.Duration `json:"collect_time"`
	LayoutTime  time.Duration `json:"layout_time"`
	RenderTime  time.Duration `json:"render_time"`
}
