// Package catalog defines gallery images and the paginated sources that
// supply them.
//
// # Images
//
// An [Image] carries its intrinsic dimensions (used by the row packer) and a
// set of resolution [Tier]s (used by the viewer's quality selector). Images
// are immutable after ingestion and shared by pointer between layout rows and
// the viewer.
//
// # Sources
//
// A [Source] returns images in a stable order, one page at a time:
//
//   - [Memory]: an in-process slice
//   - [File]: a JSON or YAML document on disk, reloadable via [File.Watch]
//   - [HTTP]: a JSON or YAML document served over HTTP, cached
//   - [Mongo]: a MongoDB collection ordered by position
//
// Use [Open] to pick a source from a reference string.
package catalog

import (
	"context"
	"fmt"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// TierName identifies a resolution variant of an image.
type TierName string

// Tier names in ascending resolution order.
const (
	TierPreviewXXS TierName = "preview_xxs"
	TierPreviewXS  TierName = "preview_xs"
	TierPreviewS   TierName = "preview_s"
	TierPreviewM   TierName = "preview_m"
	TierPreviewL   TierName = "preview_l"
	TierPreviewXL  TierName = "preview_xl"
	TierRaw        TierName = "raw"
)

// TierOrder lists every tier from smallest to largest.
var TierOrder = []TierName{
	TierPreviewXXS,
	TierPreviewXS,
	TierPreviewS,
	TierPreviewM,
	TierPreviewL,
	TierPreviewXL,
	TierRaw,
}

// Rank returns the position of t in [TierOrder], or -1 for unknown names.
func (t TierName) Rank() int {
	for i, name := range TierOrder {
		if name == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is a known tier name.
func (t TierName) Valid() bool { return t.Rank() >= 0 }

// ParseTier converts a string to a TierName.
func ParseTier(s string) (TierName, error) {
	t := TierName(s)
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown tier %q", s)
	}
	return t, nil
}

// Tier is one stored resolution of an image.
type Tier struct {
	Width  int    `json:"width" yaml:"width" bson:"width"`
	Height int    `json:"height" yaml:"height" bson:"height"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty" bson:"url,omitempty"`
}

// Image is a single gallery entry.
type Image struct {
	ID        string            `json:"id" yaml:"id" bson:"id"`
	URL       string            `json:"url" yaml:"url" bson:"url"`
	Thumbnail string            `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Date      string            `json:"date,omitempty" yaml:"date,omitempty" bson:"date,omitempty"`
	Width     float64           `json:"width" yaml:"width" bson:"width"`
	Height    float64           `json:"height" yaml:"height" bson:"height"`
	Tiers     map[TierName]Tier `json:"tiers,omitempty" yaml:"tiers,omitempty" bson:"tiers,omitempty"`
}

// AspectRatio returns Width/Height. Callers must validate first.
func (img *Image) AspectRatio() float64 { return img.Width / img.Height }

// Validate checks the fields the row packer depends on.
func (img *Image) Validate() error {
	if img == nil {
		return errors.New(errors.ErrCodeInvalidImageData, "nil image")
	}
	if err := errors.ValidateImageID(img.ID); err != nil {
		return err
	}
	return errors.ValidateDimensions(img.Width, img.Height)
}

// ValidateTiers checks that at least one tier exists and that every tier
// has positive dimensions. The viewer needs this, the grid does not.
func (img *Image) ValidateTiers() error {
	if len(img.Tiers) == 0 {
		return errors.New(errors.ErrCodeInvalidImageData, "image %q has no tiers", img.ID)
	}
	for name, t := range img.Tiers {
		if !name.Valid() {
			return errors.New(errors.ErrCodeInvalidImageData, "image %q: unknown tier %q", img.ID, name)
		}
		if t.Width <= 0 || t.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidImageData, "image %q: tier %s has dimensions %dx%d", img.ID, name, t.Width, t.Height)
		}
		if t.URL != "" {
			if err := errors.ValidateAssetRef(t.URL); err != nil {
				return fmt.Errorf("image %q tier %s: %w", img.ID, name, err)
			}
		}
	}
	return nil
}

// TierURL returns the URL of the named tier, falling back to the image URL
// when the tier has none.
func (img *Image) TierURL(name TierName) string {
	if t, ok := img.Tiers[name]; ok && t.URL != "" {
		return t.URL
	}
	return img.URL
}

// Page is one slice of a catalog.
type Page struct {
	Images []*Image
	Total  int // total catalog size at the time of the call
}

// Source supplies images in a stable order.
//
// FetchPage returns up to count images starting at offset. A page shorter
// than count, or an offset at or past Total, signals the end of the catalog.
type Source interface {
	FetchPage(ctx context.Context, offset, count int) (Page, error)
}

// slicePage cuts a page out of a fully loaded image list.
func slicePage(images []*Image, offset, count int) (Page, error) {
	if offset < 0 || count < 0 {
		return Page{}, errors.New(errors.ErrCodeInvalidInput, "invalid page offset=%d count=%d", offset, count)
	}
	total := len(images)
	if offset >= total {
		return Page{Total: total}, nil
	}
	end := min(offset+count, total)
	page := make([]*Image, end-offset)
	copy(page, images[offset:end])
	return Page{Images: page, Total: total}, nil
}
