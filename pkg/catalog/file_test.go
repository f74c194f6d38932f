package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/lightbox/pkg/errors"
)

func writeCatalog(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewFile(t *testing.T) {
	src, err := NewFile("testdata/data.json")
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	page, err := src.FetchPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if page.Total != 3 || len(page.Images) != 2 {
		t.Errorf("page = %d images of %d", len(page.Images), page.Total)
	}
}

func TestNewFileMissing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("NewFile(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestFileReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeCatalog(t, path, `[{"id":"a","width":1,"height":1}]`)

	src, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	writeCatalog(t, path, `[{`)
	if err := src.Reload(); err == nil {
		t.Fatal("Reload() of malformed document should fail")
	}
	if n := len(src.Images()); n != 1 {
		t.Errorf("images after failed reload = %d, want 1", n)
	}
}

func TestFileWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeCatalog(t, path, `[{"id":"a","width":1,"height":1}]`)

	src, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan int, 4)
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, func(total int, err error) {
			if err == nil {
				reloaded <- total
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeCatalog(t, path, `[{"id":"a","width":1,"height":1},{"id":"b","width":2,"height":1}]`)

	select {
	case total := <-reloaded:
		if total != 2 {
			t.Errorf("reloaded total = %d, want 2", total)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() returned %v", err)
	}
}
