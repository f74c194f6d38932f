// Package layout packs images into justified rows.
//
// # Algorithm
//
// [Pack] is a greedy, single-pass packer. Every image is first normalized to
// the ideal row height (containerWidth / divisor). A candidate row grows one
// image at a time for as long as doing so strictly reduces the distance
// between the row's fill height and the ideal height:
//
//	rowHeight = containerWidth / (sum(normWidth) + (n-1)*gap) * idealHeight
//
// The first image that would not improve the row seeds the next row. Closed
// rows are scaled so they fill the container exactly. The last row is left
// at ideal height with natural widths because more images may still join it.
//
// # Resizing
//
// Row membership never changes after packing. [Rescale] and [Natural]
// re-derive geometry from intrinsic dimensions, so calling them repeatedly
// with the same width yields identical rows.
package layout

import (
	"math"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
)

// DefaultDivisor is the number of ideal-height square images that span the
// container width.
const DefaultDivisor = 6.0

// Item is one image placed in a row.
type Item struct {
	Image  *catalog.Image `json:"-"`
	ID     string         `json:"id"`
	X      float64        `json:"x"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
}

// Row is a horizontal strip of images sharing one height.
type Row struct {
	Items     []Item  `json:"items"`
	Height    float64 `json:"height"`
	Width     float64 `json:"width"`
	Committed bool    `json:"committed"`
}

// Images returns the row members in order.
func (r Row) Images() []*catalog.Image {
	out := make([]*catalog.Image, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Image
	}
	return out
}

// Len returns the number of images in the row.
func (r Row) Len() int { return len(r.Items) }

// Clone returns a deep copy of the row. Images are shared.
func (r Row) Clone() Row {
	r.Items = append([]Item(nil), r.Items...)
	return r
}

// Result is the output of [Pack].
type Result struct {
	Rows     []Row
	Consumed int
}

// Options holds packing parameters.
type Options struct {
	Divisor float64
	Gap     float64
}

// Option configures packing.
type Option func(*Options)

// WithDivisor sets the ideal-height divisor. Non-positive values are ignored.
func WithDivisor(d float64) Option {
	return func(o *Options) {
		if d > 0 {
			o.Divisor = d
		}
	}
}

// WithGap sets the horizontal gap between images in a row.
func WithGap(g float64) Option {
	return func(o *Options) {
		if g >= 0 {
			o.Gap = g
		}
	}
}

func resolve(opts []Option) Options {
	o := Options{Divisor: DefaultDivisor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IdealHeight returns the target row height for a container width.
func IdealHeight(containerWidth float64, opts ...Option) float64 {
	return containerWidth / resolve(opts).Divisor
}

// normWidth is the image width at the ideal height.
func normWidth(img *catalog.Image, ideal float64) float64 {
	return img.Width * ideal / img.Height
}

func gaps(n int, gap float64) float64 {
	if n < 2 {
		return 0
	}
	return float64(n-1) * gap
}

func fillHeight(sum float64, n int, width, ideal, gap float64) float64 {
	return width / (sum + gaps(n, gap)) * ideal
}

// HeightError returns |idealHeight - rowHeight| for images packed into one
// row at containerWidth. This is the quantity the acceptance rule minimizes.
func HeightError(images []*catalog.Image, containerWidth float64, opts ...Option) float64 {
	o := resolve(opts)
	ideal := containerWidth / o.Divisor
	var sum float64
	for _, img := range images {
		sum += normWidth(img, ideal)
	}
	return math.Abs(ideal - fillHeight(sum, len(images), containerWidth, ideal, o.Gap))
}

// Pack groups images[start:] into rows for containerWidth.
//
// Every image from start onwards is validated before packing; the first
// invalid one fails the call with INVALID_IMAGE_DATA and its index (see
// [errors.IndexOf]). All returned rows except the last are committed.
func Pack(images []*catalog.Image, start int, containerWidth float64, opts ...Option) (Result, error) {
	o := resolve(opts)
	if err := validateWidth(containerWidth); err != nil {
		return Result{}, err
	}
	if start < 0 || start > len(images) {
		return Result{}, errors.AtIndex(start, len(images),
			errors.New(errors.ErrCodeIndexOutOfRange, "start %d outside [0, %d]", start, len(images)))
	}
	for i := start; i < len(images); i++ {
		if err := images[i].Validate(); err != nil {
			return Result{}, errors.AtIndex(i, len(images),
				errors.Wrap(errors.ErrCodeInvalidImageData, err, "image at index %d", i))
		}
	}

	ideal := containerWidth / o.Divisor
	var rows []Row
	i := start
	for i < len(images) {
		first := i
		sum := normWidth(images[i], ideal)
		best := math.Abs(ideal - fillHeight(sum, 1, containerWidth, ideal, o.Gap))
		i++
		for i < len(images) {
			cand := sum + normWidth(images[i], ideal)
			n := i - first + 1
			e := math.Abs(ideal - fillHeight(cand, n, containerWidth, ideal, o.Gap))
			if e >= best {
				break
			}
			sum, best = cand, e
			i++
		}

		members := images[first:i]
		if i < len(images) {
			rows = append(rows, scaled(members, containerWidth, o))
		} else {
			rows = append(rows, natural(members, containerWidth, o))
		}
	}
	return Result{Rows: rows, Consumed: len(images) - start}, nil
}

// Rescale fills the container with row's members at containerWidth and marks
// the row committed.
func Rescale(row Row, containerWidth float64, opts ...Option) (Row, error) {
	if err := validateWidth(containerWidth); err != nil {
		return Row{}, err
	}
	return scaled(row.Images(), containerWidth, resolve(opts)), nil
}

// Natural lays row's members out at ideal height without filling the
// container. The result is not committed.
func Natural(row Row, containerWidth float64, opts ...Option) (Row, error) {
	if err := validateWidth(containerWidth); err != nil {
		return Row{}, err
	}
	return natural(row.Images(), containerWidth, resolve(opts)), nil
}

func scaled(images []*catalog.Image, width float64, o Options) Row {
	ideal := width / o.Divisor
	var sum float64
	for _, img := range images {
		sum += normWidth(img, ideal)
	}
	ratio := (width - gaps(len(images), o.Gap)) / sum
	row := place(images, ideal, ratio, o.Gap)
	row.Committed = true
	return row
}

func natural(images []*catalog.Image, width float64, o Options) Row {
	return place(images, width/o.Divisor, 1, o.Gap)
}

func place(images []*catalog.Image, ideal, ratio, gap float64) Row {
	row := Row{Items: make([]Item, len(images)), Height: ideal * ratio}
	x := 0.0
	for i, img := range images {
		w := normWidth(img, ideal) * ratio
		row.Items[i] = Item{Image: img, ID: img.ID, X: x, Width: w, Height: row.Height}
		x += w
		if i < len(images)-1 {
			x += gap
		}
	}
	row.Width = x
	return row
}

func validateWidth(w float64) error {
	if !(w > 0) || math.IsInf(w, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "container width must be positive, got %v", w)
	}
	return nil
}
