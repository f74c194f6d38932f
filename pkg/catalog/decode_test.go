package catalog

import (
	"os"
	"testing"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"data.json":                      FormatJSON,
		"gallery.YAML":                   FormatYAML,
		"gallery.yml":                    FormatYAML,
		"https://x.test/data.yaml?v=2":   FormatYAML,
		"https://x.test/api/catalog":     FormatJSON,
		"assets/img/gallery/data.json#a": FormatJSON,
	}
	for in, want := range tests {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	data, err := os.ReadFile("testdata/data.json")
	if err != nil {
		t.Fatal(err)
	}
	images, err := Decode(data, FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("Decode() returned %d images, want 3", len(images))
	}

	lake := images[0]
	if lake.ID != lake.URL {
		t.Errorf("ID should default to URL, got %q", lake.ID)
	}
	if lake.Date != "2016-07-02" || lake.Thumbnail == "" {
		t.Errorf("metadata not decoded: %+v", lake)
	}
	if len(lake.Tiers) != 3 {
		t.Errorf("flat tiers: got %d, want 3", len(lake.Tiers))
	}
	if lake.Tiers[TierPreviewM].Width != 1200 {
		t.Errorf("preview_m width = %d", lake.Tiers[TierPreviewM].Width)
	}

	tower := images[1]
	if tower.ID != "tower" || tower.Tiers[TierRaw].Height != 3000 {
		t.Errorf("nested tiers not decoded: %+v", tower)
	}

	if images[2].Tiers != nil {
		t.Errorf("image without tiers should have nil Tiers, got %v", images[2].Tiers)
	}
}

func TestDecodeYAML(t *testing.T) {
	data, err := os.ReadFile("testdata/data.yaml")
	if err != nil {
		t.Fatal(err)
	}
	images, err := Decode(data, FormatYAML)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("Decode() returned %d images, want 2", len(images))
	}
	if images[0].Tiers[TierPreviewXXS].Width != 300 {
		t.Errorf("flat yaml tier not decoded: %+v", images[0].Tiers)
	}
	if images[1].Tiers[TierPreviewM].Height != 1200 {
		t.Errorf("nested yaml tier not decoded: %+v", images[1].Tiers)
	}
}

func TestDecodeWrappedJSON(t *testing.T) {
	images, err := Decode([]byte(`{"images":[{"id":"a","width":1,"height":2}]}`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(images) != 1 || images[0].Height != 2 {
		t.Errorf("Decode() = %+v", images)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte(`[{`), FormatJSON); err == nil {
		t.Error("malformed JSON should fail")
	}
	if _, err := Decode([]byte(`[]`), "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := []*Image{{ID: "a", URL: "a.jpg", Width: 4, Height: 3, Tiers: map[TierName]Tier{TierRaw: {Width: 4, Height: 3}}}}
	for _, f := range []Format{FormatJSON, FormatYAML} {
		data, err := Encode(in, f)
		if err != nil {
			t.Fatalf("Encode(%s) error: %v", f, err)
		}
		out, err := Decode(data, f)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", f, err)
		}
		if len(out) != 1 || out[0].ID != "a" || out[0].Tiers[TierRaw].Width != 4 {
			t.Errorf("%s round trip = %+v", f, out)
		}
	}
}
