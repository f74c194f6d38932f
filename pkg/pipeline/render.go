package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"

	"github.com/matzehuels/lightbox/pkg/gallery"
)

// Render produces one artifact per requested format.
func Render(l gallery.Layout, opts Options) (map[string][]byte, error) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = RenderJSON(l)
		case FormatSVG:
			data, err = RenderSVG(l, opts.Gap)
		case FormatPNG:
			data, err = RenderPNG(l, opts.Gap)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderJSON encodes the layout as indented JSON.
func RenderJSON(l gallery.Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout decodes a layout written by [RenderJSON].
// Items come back without their catalog images.
func UnmarshalLayout(data []byte) (gallery.Layout, error) {
	var l gallery.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return gallery.Layout{}, err
	}
	return l, nil
}

const (
	committedStyle = "fill:#d8dee9;stroke:#4c566a;stroke-width:1"
	trailingStyle  = "fill:#eceff4;stroke:#4c566a;stroke-width:1;stroke-dasharray:4,3"
	labelStyle     = "font-family:monospace;font-size:11px;fill:#2e3440"
)

// RenderSVG draws every item as a labelled box at its packed position.
// Rows are stacked top to bottom with gap between them. The trailing
// uncommitted row is drawn dashed.
func RenderSVG(l gallery.Layout, gap float64) ([]byte, error) {
	var buf bytes.Buffer
	width := int(math.Ceil(l.Width))
	height := int(math.Ceil(l.Height(gap)))
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Title(fmt.Sprintf("gallery layout: %d rows", len(l.Rows)))

	var y float64
	for i, row := range l.Rows {
		if i > 0 {
			y += gap
		}
		style := committedStyle
		if !row.Committed {
			style = trailingStyle
		}
		canvas.Gid(fmt.Sprintf("row-%d", i))
		for _, item := range row.Items {
			x, top := round(item.X), round(y)
			w, h := round(item.Width), round(item.Height)
			canvas.Rect(x, top, w, h, style)
			if w > 40 && h > 16 {
				canvas.Text(x+4, top+14, item.ID, labelStyle)
			}
		}
		canvas.Gend()
		y += row.Height
	}
	canvas.End()
	return buf.Bytes(), nil
}

func round(v float64) int { return int(math.Round(v)) }

// MaxPNGHeight bounds the raster height; taller layouts are scaled down.
const MaxPNGHeight = 16384

// RenderPNG rasterizes the same wireframe as [RenderSVG].
func RenderPNG(l gallery.Layout, gap float64) ([]byte, error) {
	width, height := math.Max(l.Width, 1), math.Max(l.Height(gap), 1)
	scale := 1.0
	if height > MaxPNGHeight {
		scale = MaxPNGHeight / height
	}

	dc := gg.NewContext(int(math.Ceil(width*scale)), int(math.Ceil(height*scale)))
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.Scale(scale, scale)
	dc.SetLineWidth(1)

	var y float64
	for i, row := range l.Rows {
		if i > 0 {
			y += gap
		}
		for _, item := range row.Items {
			dc.DrawRectangle(item.X, y, item.Width, item.Height)
			if row.Committed {
				dc.SetHexColor("#d8dee9")
			} else {
				dc.SetHexColor("#eceff4")
				dc.SetDash(4, 3)
			}
			dc.FillPreserve()
			dc.SetHexColor("#4c566a")
			dc.Stroke()
			dc.SetDash()
			if item.Width > 40 && item.Height > 16 {
				dc.SetHexColor("#2e3440")
				dc.DrawString(item.ID, item.X+4, y+14)
			}
		}
		y += row.Height
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
