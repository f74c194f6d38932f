package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

func testSource(n int) catalog.Source {
	images := make([]*catalog.Image, n)
	for i := range images {
		images[i] = &catalog.Image{ID: fmt.Sprintf("img-%d", i), Width: 4, Height: 3}
	}
	return catalog.NewMemory(images)
}

func TestStoreCreateGet(t *testing.T) {
	st := NewStore(time.Minute)
	s, err := st.Create(testSource(3), gallery.DefaultOptions(800), viewer.WithSettleDelay(0))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("session ID %q is not a UUID: %v", s.ID, err)
	}

	got, err := st.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d", st.Len())
	}

	if _, err := st.Get("nope"); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
}

func TestViewerFollowsGallery(t *testing.T) {
	st := NewStore(time.Minute)
	s, err := st.Create(testSource(12), gallery.DefaultOptions(800), viewer.WithSettleDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Viewer.Open(0); !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
		t.Errorf("Open() before any page = %v, want INDEX_OUT_OF_RANGE", err)
	}

	if _, err := s.Gallery.RequestMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Viewer.State().Count; got != 5 {
		t.Errorf("viewer count after first page = %d, want 5", got)
	}
	if err := s.Viewer.Open(4); err != nil {
		t.Fatal(err)
	}
	if s.Viewer.State().RightArrowVisible {
		t.Error("right arrow should be hidden at the last loaded image")
	}

	if _, err := s.Gallery.RequestMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	state := s.Viewer.State()
	if state.Count != 12 || !state.RightArrowVisible || state.ActiveIndex != 4 {
		t.Errorf("viewer after second page = %+v", state)
	}
}

func TestViewerFollowsGalleryConcurrently(t *testing.T) {
	s, err := New(testSource(40), gallery.DefaultOptions(800), viewer.WithSettleDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.Gallery.LoadAll(context.Background()); err != nil {
			t.Errorf("LoadAll() error: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 50 {
			if err := s.Gallery.OnContainerResize(float64(600 + i*10)); err != nil {
				t.Errorf("OnContainerResize() error: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if got := s.Viewer.State().Count; got != 40 {
		t.Errorf("viewer count = %d, want 40", got)
	}
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(10 * time.Millisecond)
	s, err := st.Create(testSource(1), gallery.DefaultOptions(800))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if n := st.Cleanup(); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
	if _, err := st.Get(s.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get(expired) error = %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(0)
	s, err := st.Create(testSource(1), gallery.DefaultOptions(800))
	if err != nil {
		t.Fatal(err)
	}
	if !st.Delete(s.ID) {
		t.Error("Delete() should report removal")
	}
	if st.Delete(s.ID) {
		t.Error("second Delete() should be a no-op")
	}
}

func TestRunJanitor(t *testing.T) {
	st := NewStore(5 * time.Millisecond)
	if _, err := st.Create(testSource(1), gallery.DefaultOptions(800)); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.RunJanitor(ctx, 5*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for st.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never removed the session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("RunJanitor() = %v", err)
	}
}
