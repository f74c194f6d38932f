package viewer

import (
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/quality"
)

func testImages(n int) []*catalog.Image {
	out := make([]*catalog.Image, n)
	for i := range out {
		id := fmt.Sprintf("img-%d", i)
		out[i] = &catalog.Image{
			ID:     id,
			URL:    "raw/" + id + ".jpg",
			Width:  4000,
			Height: 3000,
			Tiers: map[catalog.TierName]catalog.Tier{
				catalog.TierPreviewXXS: {Width: 320, Height: 240, URL: "xxs/" + id + ".jpg"},
				catalog.TierPreviewM:   {Width: 1280, Height: 720, URL: "m/" + id + ".jpg"},
				catalog.TierPreviewXL:  {Width: 1920, Height: 1080, URL: "xl/" + id + ".jpg"},
				catalog.TierRaw:        {Width: 4000, Height: 3000, URL: "raw/" + id + ".jpg"},
			},
		}
	}
	return out
}

func syncNavigator(n int, opts ...Option) *Navigator {
	return New(testImages(n), append([]Option{WithSettleDelay(0), WithViewport(1920, 1080)}, opts...)...)
}

func TestOpen(t *testing.T) {
	nav := syncNavigator(5)
	if err := nav.Open(2); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	s := nav.State()
	if !s.Open || s.ActiveIndex != 2 || s.ActiveID != "img-2" {
		t.Errorf("Open(2) state = %+v", s)
	}
	if s.ActiveCount() != 1 || !s.Flags["img-2"].Active {
		t.Errorf("flags = %v", s.Flags)
	}
	if !s.LeftArrowVisible || !s.RightArrowVisible {
		t.Error("both arrows should be visible in the middle")
	}
	if s.Tier != catalog.TierPreviewXL || s.URL != "xl/img-2.jpg" {
		t.Errorf("tier = %s url = %s", s.Tier, s.URL)
	}
}

func TestOpenOutOfRange(t *testing.T) {
	nav := syncNavigator(3)
	for _, idx := range []int{-1, 3, 100} {
		err := nav.Open(idx)
		if !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
			t.Errorf("Open(%d) error = %v, want INDEX_OUT_OF_RANGE", idx, err)
		}
		if got, ok := errors.IndexOf(err); !ok || got != idx {
			t.Errorf("IndexOf() = %d, %v", got, ok)
		}
	}
	if nav.State().Open {
		t.Error("failed Open must leave the viewer closed")
	}
}

func TestNavigateBoundaries(t *testing.T) {
	nav := syncNavigator(3)
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	before := nav.State()
	moved, err := nav.Navigate(-1, false)
	if moved || err != nil {
		t.Errorf("Navigate(-1) at 0 = %v, %v", moved, err)
	}
	if s := nav.State(); s.ActiveIndex != 0 || s.LeftArrowVisible || !s.RightArrowVisible {
		t.Errorf("state at left edge = %+v", s)
	}
	if fmt.Sprint(before) != fmt.Sprint(nav.State()) {
		t.Error("boundary navigation must not change state")
	}

	if _, err := nav.Last(); err != nil {
		t.Fatal(err)
	}
	moved, err = nav.Navigate(1, false)
	if moved || err != nil {
		t.Errorf("Navigate(1) at end = %v, %v", moved, err)
	}
	if s := nav.State(); s.ActiveIndex != 2 || !s.LeftArrowVisible || s.RightArrowVisible {
		t.Errorf("state at right edge = %+v", s)
	}
}

func TestNavigateErrors(t *testing.T) {
	nav := syncNavigator(3)
	if _, err := nav.Navigate(1, false); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("Navigate() while closed = %v, want INVALID_STATE", err)
	}
	if err := nav.Open(1); err != nil {
		t.Fatal(err)
	}
	for _, d := range []int{0, 2, -2} {
		if _, err := nav.Navigate(d, false); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Navigate(%d) error = %v, want INVALID_INPUT", d, err)
		}
	}
}

func TestNavigateTransitions(t *testing.T) {
	tests := []struct {
		name      string
		direction int
		out, in   Transition
	}{
		{"left", -1, LeaveToRight, EnterFromLeft},
		{"right", 1, LeaveToLeft, EnterFromRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := New(testImages(3), WithSettleDelay(time.Hour))
			if err := nav.Open(1); err != nil {
				t.Fatal(err)
			}
			if _, err := nav.Navigate(tt.direction, false); err != nil {
				t.Fatal(err)
			}
			s := nav.State()
			target := fmt.Sprintf("img-%d", 1+tt.direction)
			if s.Flags["img-1"].Transition != tt.out || s.Flags[target].Transition != tt.in {
				t.Errorf("flags = %v", s.Flags)
			}
			if !s.Flags["img-1"].Active || s.ActiveCount() != 1 {
				t.Errorf("outgoing image should stay active until settle: %v", s.Flags)
			}
			if !s.Settling || s.ActiveIndex != 1+tt.direction {
				t.Errorf("settling=%v index=%d", s.Settling, s.ActiveIndex)
			}
			nav.Close()
		})
	}
}

func TestSwipeHidesArrows(t *testing.T) {
	nav := syncNavigator(5)
	if err := nav.Open(2); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.Navigate(1, true); err != nil {
		t.Fatal(err)
	}
	if s := nav.State(); s.LeftArrowVisible || s.RightArrowVisible {
		t.Error("swipe should hide both arrows")
	}
	if _, err := nav.Navigate(-1, false); err != nil {
		t.Fatal(err)
	}
	if s := nav.State(); !s.LeftArrowVisible || !s.RightArrowVisible {
		t.Error("keyboard navigation should show arrows again")
	}
}

func TestSettleSynchronous(t *testing.T) {
	nav := syncNavigator(3)
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	if err := nav.Pan(42); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.Navigate(1, false); err != nil {
		t.Fatal(err)
	}
	s := nav.State()
	if s.Settling || s.PanOffset != 0 {
		t.Errorf("zero delay should settle immediately: %+v", s)
	}
	if len(s.Flags) != 1 || !s.Flags["img-1"].Active {
		t.Errorf("settled flags = %v", s.Flags)
	}
	if _, ok := s.Flags["img-0"]; ok {
		t.Error("outgoing image flags should be cleared")
	}
}

func TestSettleDeferredAndSuperseded(t *testing.T) {
	settled := make(chan State, 8)
	nav := New(testImages(5),
		WithSettleDelay(30*time.Millisecond),
		WithViewport(1920, 1080),
		WithOnChange(func(s State) {
			if !s.Settling && s.Open {
				settled <- s
			}
		}),
	)
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	<-settled // Open itself

	for range 3 {
		if _, err := nav.Navigate(1, false); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case s := <-settled:
		if s.ActiveIndex != 3 || !s.Flags["img-3"].Active || len(s.Flags) != 1 {
			t.Errorf("settled state = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("settle never ran")
	}

	select {
	case s := <-settled:
		t.Errorf("superseded settle ran: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseCancelsSettle(t *testing.T) {
	changes := make(chan State, 8)
	nav := New(testImages(3), WithSettleDelay(20*time.Millisecond), WithOnChange(func(s State) { changes <- s }))
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.Navigate(1, false); err != nil {
		t.Fatal(err)
	}
	nav.Close()
	time.Sleep(60 * time.Millisecond)

	s := nav.State()
	if s.Open || len(s.Flags) != 0 || s.Settling {
		t.Errorf("closed state = %+v", s)
	}
	if s.ActiveIndex != 1 {
		t.Errorf("Close() should keep ActiveIndex, got %d", s.ActiveIndex)
	}
	if len(changes) != 3 {
		t.Errorf("got %d change notifications, want 3 (open, navigate, close)", len(changes))
	}
	if s.LeftArrowVisible || s.RightArrowVisible {
		t.Error("arrows must be hidden while closed")
	}
}

func TestFirstLast(t *testing.T) {
	nav := New(testImages(5), WithSettleDelay(time.Hour))
	defer nav.Close()
	if err := nav.Open(2); err != nil {
		t.Fatal(err)
	}

	moved, err := nav.Last()
	if !moved || err != nil {
		t.Fatalf("Last() = %v, %v", moved, err)
	}
	s := nav.State()
	if s.ActiveIndex != 4 || s.Flags["img-2"].Transition != LeaveToLeft || s.Flags["img-4"].Transition != EnterFromRight {
		t.Errorf("Last() state = %+v", s)
	}

	if moved, _ := nav.Last(); moved {
		t.Error("Last() at the end should be a no-op")
	}

	if _, err := nav.First(); err != nil {
		t.Fatal(err)
	}
	s = nav.State()
	if s.ActiveIndex != 0 || s.Flags["img-4"].Transition != LeaveToRight || s.Flags["img-0"].Transition != EnterFromLeft {
		t.Errorf("First() state = %+v", s)
	}
	if s.ActiveCount() != 1 {
		t.Errorf("exactly one image must be active, got %d", s.ActiveCount())
	}
}

func TestSetPreference(t *testing.T) {
	nav := syncNavigator(2)
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	tests := map[quality.Preference]catalog.TierName{
		quality.Low:  catalog.TierPreviewXXS,
		quality.Mid:  catalog.TierPreviewM,
		quality.High: catalog.TierRaw,
		quality.Auto: catalog.TierPreviewXL,
	}
	for pref, want := range tests {
		if err := nav.SetPreference(pref); err != nil {
			t.Fatal(err)
		}
		if got := nav.State().Tier; got != want {
			t.Errorf("SetPreference(%s) tier = %s, want %s", pref, got, want)
		}
	}
	if err := nav.SetPreference("ultra"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SetPreference(ultra) = %v", err)
	}
}

func TestResize(t *testing.T) {
	nav := syncNavigator(2)
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	if err := nav.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	if got := nav.State().Tier; got != catalog.TierPreviewM {
		t.Errorf("tier at 800x600 = %s, want preview_m", got)
	}
	if err := nav.Resize(5000, 4000); err != nil {
		t.Fatal(err)
	}
	if got := nav.State().Tier; got != catalog.TierRaw {
		t.Errorf("tier at 5000x4000 = %s, want raw", got)
	}
	if err := nav.Resize(0, 10); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resize(0, 10) = %v", err)
	}
}

func TestSetImages(t *testing.T) {
	images := testImages(3)
	nav := New(images[:2], WithSettleDelay(0))
	if err := nav.Open(1); err != nil {
		t.Fatal(err)
	}
	if nav.State().RightArrowVisible {
		t.Error("right arrow should be hidden at the last loaded image")
	}

	nav.SetImages(images)
	s := nav.State()
	if s.ActiveIndex != 1 || !s.RightArrowVisible || s.Count != 3 {
		t.Errorf("after growth: %+v", s)
	}

	nav.SetImages(images[:1])
	s = nav.State()
	if s.ActiveIndex != 0 || !s.Flags["img-0"].Active || s.ActiveCount() != 1 {
		t.Errorf("after shrink: %+v", s)
	}

	nav.SetImages(nil)
	if nav.State().Open {
		t.Error("empty image list should close the viewer")
	}
}

func TestSetImagesReplacesActive(t *testing.T) {
	images := testImages(5)
	nav := New(images[:2], WithSettleDelay(0))
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}

	nav.SetImages(images[3:5])
	s := nav.State()
	if !s.Open || s.ActiveIndex != 0 || s.ActiveCount() != 1 || !s.Flags["img-3"].Active {
		t.Errorf("after replacement: %+v", s)
	}
	if _, ok := s.Flags["img-0"]; ok {
		t.Error("flags of removed images should be dropped")
	}
}

func TestSetImagesDuringTransition(t *testing.T) {
	images := testImages(5)
	nav := New(images[:3], WithSettleDelay(time.Hour))
	if err := nav.Open(0); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.Navigate(1, false); err != nil {
		t.Fatal(err)
	}

	// Outgoing image still present: the transition keeps running.
	nav.SetImages(images[:4])
	s := nav.State()
	if !s.Settling || !s.Flags["img-0"].Active {
		t.Errorf("transition interrupted: %+v", s)
	}

	// Outgoing image gone: settle on the incoming one right away.
	nav.SetImages([]*catalog.Image{images[4], images[1], images[2]})
	s = nav.State()
	if s.Settling || s.ActiveIndex != 1 || s.ActiveCount() != 1 || !s.Flags["img-1"].Active {
		t.Errorf("after removing outgoing image: %+v", s)
	}
	nav.Close()
}

func TestFullsizeURL(t *testing.T) {
	nav := syncNavigator(2)
	if _, err := nav.FullsizeURL(); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("FullsizeURL() closed = %v", err)
	}
	if err := nav.Open(1); err != nil {
		t.Fatal(err)
	}
	url, err := nav.FullsizeURL()
	if err != nil || url != "raw/img-1.jpg" {
		t.Errorf("FullsizeURL() = %q, %v", url, err)
	}
}

func TestPanRequiresOpen(t *testing.T) {
	nav := syncNavigator(1)
	if err := nav.Pan(10); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("Pan() closed = %v", err)
	}
}
