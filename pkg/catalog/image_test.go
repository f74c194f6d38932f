package catalog

import (
	"context"
	"testing"

	"github.com/matzehuels/lightbox/pkg/errors"
)

func TestTierOrder(t *testing.T) {
	for i, name := range TierOrder {
		if name.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", name, name.Rank(), i)
		}
	}
	if TierName("huge").Rank() != -1 {
		t.Error("unknown tier should rank -1")
	}
	if TierPreviewXXS.Rank() >= TierRaw.Rank() {
		t.Error("preview_xxs must rank below raw")
	}
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier("preview_m")
	if err != nil || got != TierPreviewM {
		t.Errorf("ParseTier(preview_m) = %q, %v", got, err)
	}
	if _, err := ParseTier("medium"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseTier(medium) error = %v, want INVALID_INPUT", err)
	}
}

func TestImageValidate(t *testing.T) {
	tests := []struct {
		name    string
		img     *Image
		wantErr bool
	}{
		{"valid", &Image{ID: "a", Width: 3, Height: 2}, false},
		{"nil", nil, true},
		{"empty id", &Image{Width: 3, Height: 2}, true},
		{"zero width", &Image{ID: "a", Width: 0, Height: 2}, true},
		{"negative height", &Image{ID: "a", Width: 3, Height: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.img.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidImageData) {
				t.Errorf("Validate() code = %s, want INVALID_IMAGE_DATA", errors.GetCode(err))
			}
		})
	}
}

func TestImageValidateTiers(t *testing.T) {
	ok := &Image{ID: "a", Tiers: map[TierName]Tier{TierRaw: {Width: 10, Height: 10, URL: "raw/a.jpg"}}}
	if err := ok.ValidateTiers(); err != nil {
		t.Errorf("ValidateTiers() = %v", err)
	}

	bad := []*Image{
		{ID: "none"},
		{ID: "zero", Tiers: map[TierName]Tier{TierRaw: {Width: 0, Height: 10}}},
		{ID: "unknown", Tiers: map[TierName]Tier{"huge": {Width: 1, Height: 1}}},
		{ID: "traversal", Tiers: map[TierName]Tier{TierRaw: {Width: 1, Height: 1, URL: "../etc/passwd"}}},
	}
	for _, img := range bad {
		if err := img.ValidateTiers(); err == nil {
			t.Errorf("ValidateTiers(%s) should fail", img.ID)
		}
	}
}

func TestImageTierURL(t *testing.T) {
	img := &Image{
		URL:   "raw/a.jpg",
		Tiers: map[TierName]Tier{TierPreviewM: {Width: 1, Height: 1, URL: "m/a.jpg"}, TierRaw: {Width: 2, Height: 2}},
	}
	if got := img.TierURL(TierPreviewM); got != "m/a.jpg" {
		t.Errorf("TierURL(preview_m) = %q", got)
	}
	if got := img.TierURL(TierRaw); got != "raw/a.jpg" {
		t.Errorf("TierURL(raw) should fall back to image URL, got %q", got)
	}
}

func TestMemoryFetchPage(t *testing.T) {
	images := []*Image{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	m := NewMemory(images)
	ctx := context.Background()

	tests := []struct {
		offset, count int
		want          []string
	}{
		{0, 2, []string{"a", "b"}},
		{2, 5, []string{"c"}},
		{3, 5, nil},
		{10, 1, nil},
	}
	for _, tt := range tests {
		page, err := m.FetchPage(ctx, tt.offset, tt.count)
		if err != nil {
			t.Fatalf("FetchPage(%d, %d) error: %v", tt.offset, tt.count, err)
		}
		if page.Total != 3 {
			t.Errorf("Total = %d, want 3", page.Total)
		}
		if len(page.Images) != len(tt.want) {
			t.Fatalf("FetchPage(%d, %d) returned %d images, want %d", tt.offset, tt.count, len(page.Images), len(tt.want))
		}
		for i, id := range tt.want {
			if page.Images[i].ID != id {
				t.Errorf("image %d = %s, want %s", i, page.Images[i].ID, id)
			}
			if page.Images[i] != images[tt.offset+i] {
				t.Error("FetchPage should share image pointers")
			}
		}
	}

	if _, err := m.FetchPage(ctx, -1, 1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative offset error = %v", err)
	}

	m.Append(&Image{ID: "d"})
	if m.Len() != 4 {
		t.Errorf("Len() after Append = %d", m.Len())
	}
}
