// Package quality picks the resolution tier to display for an image.
package quality

import (
	"strings"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
)

// Preference is the user's quality choice.
type Preference string

const (
	Auto Preference = "auto"
	Low  Preference = "low"
	Mid  Preference = "mid"
	High Preference = "high"
)

// Preferences lists every preference in menu order.
var Preferences = []Preference{Auto, Low, Mid, High}

// ParsePreference converts a string to a Preference. Matching is
// case-insensitive.
func ParsePreference(s string) (Preference, error) {
	p := Preference(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Auto, Low, Mid, High:
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown quality preference %q (want auto, low, mid or high)", s)
}

// Select returns the tier to display.
//
// Fixed preferences map to fixed tiers: low to preview_xxs, mid to
// preview_m, high to raw. Auto walks the tiers present in tiers from
// smallest to largest and moves past a tier only while it fits strictly
// inside the viewport, so the result is the smallest tier at least as large
// as the viewport in one dimension. When every present tier fits, auto
// returns the largest present tier; with no tiers at all it returns
// preview_xxs.
func Select(pref Preference, viewportW, viewportH int, tiers map[catalog.TierName]catalog.Tier) catalog.TierName {
	switch pref {
	case Low:
		return catalog.TierPreviewXXS
	case Mid:
		return catalog.TierPreviewM
	case High:
		return catalog.TierRaw
	}

	largest := catalog.TierPreviewXXS
	for _, name := range catalog.TierOrder {
		t, ok := tiers[name]
		if !ok {
			continue
		}
		if !(viewportW > t.Width && viewportH > t.Height) {
			return name
		}
		largest = name
	}
	return largest
}

// Selection is a resolved tier for one image.
type Selection struct {
	Tier catalog.TierName `json:"tier"`
	URL  string           `json:"url"`
}

// Resolve selects a tier for img and returns it together with its URL.
// When the selected tier is missing from the image, the image URL is used.
func Resolve(pref Preference, viewportW, viewportH int, img *catalog.Image) Selection {
	if img == nil {
		return Selection{Tier: catalog.TierPreviewXXS}
	}
	name := Select(pref, viewportW, viewportH, img.Tiers)
	return Selection{Tier: name, URL: img.TierURL(name)}
}
