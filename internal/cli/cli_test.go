package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/gallery"
)

func writeTestCatalog(t *testing.T, n int) string {
	t.Helper()
	images := make([]*catalog.Image, n)
	for i := range images {
		images[i] = &catalog.Image{
			ID:     fmt.Sprintf("img-%02d", i),
			URL:    fmt.Sprintf("raw/img-%02d.jpg", i),
			Width:  300 + float64(i%3)*100,
			Height: 300,
		}
	}
	data, err := catalog.Encode(images, catalog.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "photos.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// emptyConfig writes an empty config file so the user's own config is ignored.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lightbox.toml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandTree(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	want := []string{"cache", "import", "layout", "serve", "view"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q (have %v)", name, got)
		}
	}

	for _, flag := range []string{"config", "verbose", "cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	ref := writeTestCatalog(t, 23)
	out := filepath.Join(t.TempDir(), "out", "photos.json")

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{
		"--config", emptyConfig(t), "--cache", "none",
		"layout", ref, "-o", out, "--width", "900", "--gap", "4",
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("layout: %v", err)
	}

	if c.Config.Gallery.Width != 900 || c.Config.Gallery.Gap != 4 {
		t.Errorf("flags not applied: width=%v gap=%v", c.Config.Gallery.Width, c.Config.Gallery.Gap)
	}
	if c.Config.Cache.Backend != "none" {
		t.Errorf("cache backend = %q, want none", c.Config.Cache.Backend)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var l gallery.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if l.Width != 900 {
		t.Errorf("layout width = %v, want 900", l.Width)
	}
	if l.State != gallery.Exhausted {
		t.Errorf("layout state = %v, want exhausted", l.State)
	}
	var items int
	for _, r := range l.Rows {
		items += r.Len()
	}
	if items != 23 {
		t.Errorf("layout holds %d images, want 23", items)
	}
}

func TestLayoutCommandBadPolicy(t *testing.T) {
	ref := writeTestCatalog(t, 3)
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", emptyConfig(t), "--cache", "none", "layout", ref, "--policy", "explode"})
	root.SilenceErrors = true
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("expected an error for an unknown invalid-image policy")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json, svg", []string{"json", "svg"}},
		{"json,,", []string{"json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		output  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "single format explicit output",
			ref:     "photos.json",
			output:  "out.json",
			formats: []string{"json"},
			want:    map[string]string{"json": "out.json"},
		},
		{
			name:    "derived from catalog",
			ref:     "data/photos.yaml",
			formats: []string{"json", "svg"},
			want:    map[string]string{"json": "data/photos.layout.json", "svg": "data/photos.layout.svg"},
		},
		{
			name:    "output as base",
			ref:     "photos.json",
			output:  "out/p",
			formats: []string{"json", "svg"},
			want:    map[string]string{"json": "out/p.layout.json", "svg": "out/p.layout.svg"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPaths(tt.ref, tt.output, tt.formats); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalogBaseName(t *testing.T) {
	tests := []struct{ ref, want string }{
		{"photos.json", "photos"},
		{"dir/photos.yaml", "dir/photos"},
		{"https://example.com/assets/gallery/data.json", "data"},
		{"https://example.com/", "gallery"},
	}
	for _, tt := range tests {
		if got := catalogBaseName(tt.ref); got != tt.want {
			t.Errorf("catalogBaseName(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestDisplayURL(t *testing.T) {
	tests := []struct{ addr, want string }{
		{":8080", "http://localhost:8080"},
		{"0.0.0.0:9000", "http://localhost:9000"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"[::]:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		if got := displayURL(tt.addr); got != tt.want {
			t.Errorf("displayURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestViewportValue(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"1920x1080", 1920, 1080, false},
		{" 800X600 ", 800, 600, false},
		{"1920", 0, 0, true},
		{"0x100", 0, 0, true},
		{"axb", 0, 0, true},
	}
	for _, tt := range tests {
		var v viewportValue
		err := v.Set(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (v.width != tt.w || v.height != tt.h) {
			t.Errorf("Set(%q) = %dx%d, want %dx%d", tt.in, v.width, v.height, tt.w, tt.h)
		}
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(37, 9, 2, true)
	for _, want := range []string{"37 images", "9 rows", "2 skipped"} {
		if !bytes.Contains([]byte(line), []byte(want)) {
			t.Errorf("statsLine() = %q, missing %q", line, want)
		}
	}
}

func TestImportCommandSQLite(t *testing.T) {
	ref := writeTestCatalog(t, 8)
	dest := filepath.Join(t.TempDir(), "photos.db")

	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", emptyConfig(t), "--cache", "none", "import", ref, dest, "--start", "10"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}

	src, err := catalog.OpenSQLite(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	page, err := src.FetchPage(context.Background(), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 8 || page.Images[0].ID != "img-00" {
		t.Errorf("imported %d images, first %q", page.Total, page.Images[0].ID)
	}
}
