package catalog

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// Format is a catalog document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file name or URL path.
// Unknown extensions are treated as JSON.
func FormatFromPath(p string) Format {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// record is the on-disk shape of an image. Tiers may be listed under a
// nested "tiers" map or as flat top-level keys (preview_xxs, ..., raw).
type record struct {
	ID        string            `json:"id" yaml:"id"`
	URL       string            `json:"url" yaml:"url"`
	Thumbnail string            `json:"thumbnail" yaml:"thumbnail"`
	Date      string            `json:"date" yaml:"date"`
	Width     float64           `json:"width" yaml:"width"`
	Height    float64           `json:"height" yaml:"height"`
	Tiers     map[TierName]Tier `json:"tiers" yaml:"tiers"`

	PreviewXXS *Tier `json:"preview_xxs" yaml:"preview_xxs"`
	PreviewXS  *Tier `json:"preview_xs" yaml:"preview_xs"`
	PreviewS   *Tier `json:"preview_s" yaml:"preview_s"`
	PreviewM   *Tier `json:"preview_m" yaml:"preview_m"`
	PreviewL   *Tier `json:"preview_l" yaml:"preview_l"`
	PreviewXL  *Tier `json:"preview_xl" yaml:"preview_xl"`
	Raw        *Tier `json:"raw" yaml:"raw"`
}

type wrapped struct {
	Images []record `json:"images" yaml:"images"`
}

func (r record) image() *Image {
	img := &Image{
		ID:        r.ID,
		URL:       r.URL,
		Thumbnail: r.Thumbnail,
		Date:      r.Date,
		Width:     r.Width,
		Height:    r.Height,
		Tiers:     make(map[TierName]Tier, len(TierOrder)),
	}
	if img.ID == "" {
		img.ID = r.URL
	}
	for name, t := range r.Tiers {
		img.Tiers[name] = t
	}
	flat := map[TierName]*Tier{
		TierPreviewXXS: r.PreviewXXS,
		TierPreviewXS:  r.PreviewXS,
		TierPreviewS:   r.PreviewS,
		TierPreviewM:   r.PreviewM,
		TierPreviewL:   r.PreviewL,
		TierPreviewXL:  r.PreviewXL,
		TierRaw:        r.Raw,
	}
	for name, t := range flat {
		if t != nil {
			img.Tiers[name] = *t
		}
	}
	if len(img.Tiers) == 0 {
		img.Tiers = nil
	}
	return img
}

// Decode parses a catalog document. The document is either a list of
// images or an object with an "images" list. Entries are not validated;
// the gallery decides what to do with invalid ones.
func Decode(data []byte, format Format) ([]*Image, error) {
	var records []record
	var err error
	switch format {
	case FormatYAML:
		records, err = decodeYAML(data)
	case FormatJSON, "":
		records, err = decodeJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s catalog", format)
	}

	images := make([]*Image, len(records))
	for i, r := range records {
		images[i] = r.image()
	}
	return images, nil
}

func decodeJSON(data []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w wrapped
		err := json.Unmarshal(trimmed, &w)
		return w.Images, err
	}
	var records []record
	err := json.Unmarshal(trimmed, &records)
	return records, err
}

func decodeYAML(data []byte) ([]record, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var w wrapped
	err := yaml.Unmarshal(data, &w)
	return w.Images, err
}

// Encode writes images as a JSON or YAML list with nested tiers.
func Encode(images []*Image, format Format) ([]byte, error) {
	if images == nil {
		images = []*Image{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(images)
	case FormatJSON, "":
		return json.MarshalIndent(images, "", "  ")
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported catalog format %q", format)
	}
}
