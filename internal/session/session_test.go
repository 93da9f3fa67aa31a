package session

import (
	"errors"
	"math"
	"testing"

	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/persist"
	"github.com/jask/tabreader/internal/zoom"
)

func openStub(t *testing.T, pages int, opts ...Option) (*Session, *document.StubBackend, *[]Change) {
	t.Helper()
	b := document.NewStubBackend()
	b.Add("/docs/a.pdf", pages, document.Size{Width: 600, Height: 800})
	h, err := b.Open("/docs/a.pdf")
	if err != nil {
		t.Fatalf("open stub: %v", err)
	}
	var changes []Change
	opts = append(opts, WithObserver(func(c Change) { changes = append(changes, c) }))
	s := New(7, opts...)
	if err := s.Open(h, nil); err != nil {
		t.Fatalf("session open: %v", err)
	}
	return s, b, &changes
}

func TestOpenDefaults(t *testing.T) {
	s, _, changes := openStub(t, 5)
	if s.State() != Ready || s.Page() != 0 || s.Zoom() != 1.0 || s.PageCount() != 5 {
		t.Fatalf("unexpected defaults: state=%v page=%d zoom=%v count=%d", s.State(), s.Page(), s.Zoom(), s.PageCount())
	}
	if len(*changes) != 1 {
		t.Fatalf("open should commit once, got %d", len(*changes))
	}
	if got := s.Title(); got != "a.pdf - Page 1/5" {
		t.Fatalf("title = %q", got)
	}
	if s.ID().String() != "tab_7" {
		t.Fatalf("id string = %q", s.ID().String())
	}
}

func TestOpenRestoresValidatedState(t *testing.T) {
	b := document.NewStubBackend()
	b.Add("/a.pdf", 3, document.Size{Width: 10, Height: 10})

	h, _ := b.Open("/a.pdf")
	s := New(1)
	if err := s.Open(h, &persist.Entry{CurrentPage: 2, ZoomFactor: 1.5}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Page() != 2 || s.Zoom() != 1.5 {
		t.Fatalf("restore: page=%d zoom=%v", s.Page(), s.Zoom())
	}

	h2, _ := b.Open("/a.pdf")
	s2 := New(2)
	if err := s2.Open(h2, &persist.Entry{CurrentPage: 9, ZoomFactor: 0.01}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if s2.Page() != 0 {
		t.Fatalf("out-of-range restored page must fall back to 0, got %d", s2.Page())
	}
	if s2.Zoom() != zoom.MinZoom {
		t.Fatalf("restored zoom must be clamped, got %v", s2.Zoom())
	}
}

func TestGoToPageValid(t *testing.T) {
	s, _, _ := openStub(t, 5)
	for n := 0; n < 5; n++ {
		if err := s.GoToPage(n); err != nil {
			t.Fatalf("GoToPage(%d): %v", n, err)
		}
		if s.Page() != n {
			t.Fatalf("page = %d, want %d", s.Page(), n)
		}
	}
}

func TestGoToPageOutOfRange(t *testing.T) {
	s, _, changes := openStub(t, 5)
	_ = s.GoToPage(2)
	before := len(*changes)
	for _, n := range []int{-1, 5, 100} {
		err := s.GoToPage(n)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("GoToPage(%d) err = %v", n, err)
		}
		var re *RangeError
		if !errors.As(err, &re) || re.Page != n || re.PageCount != 5 {
			t.Fatalf("expected RangeError for %d, got %#v", n, err)
		}
	}
	if s.Page() != 2 {
		t.Fatalf("failed navigation changed page to %d", s.Page())
	}
	if len(*changes) != before {
		t.Fatalf("failed navigation must not commit")
	}
}

func TestBoundaryStepsAreNoOps(t *testing.T) {
	s, _, changes := openStub(t, 5)
	if err := s.PrevPage(); err != nil {
		t.Fatalf("PrevPage at 0: %v", err)
	}
	if s.Page() != 0 {
		t.Fatalf("PrevPage at first page moved to %d", s.Page())
	}
	_ = s.GoToPage(4)
	n := len(*changes)
	if err := s.NextPage(); err != nil {
		t.Fatalf("NextPage at end: %v", err)
	}
	if s.Page() != 4 || len(*changes) != n {
		t.Fatalf("NextPage at last page must be a no-op")
	}
	_ = s.PrevPage()
	if s.Page() != 3 {
		t.Fatalf("PrevPage: page = %d", s.Page())
	}
}

func TestZoomOperations(t *testing.T) {
	s, _, _ := openStub(t, 1)
	_ = s.ZoomIn()
	if math.Abs(s.Zoom()-1.2) > 1e-9 {
		t.Fatalf("ZoomIn from 1.0 = %v", s.Zoom())
	}
	_ = s.SetZoom(-3)
	if s.Zoom() != zoom.MinZoom {
		t.Fatalf("SetZoom must clamp, got %v", s.Zoom())
	}
	_ = s.SetSlider(150)
	if s.Zoom() != 1.5 || s.SliderValue() != 150 {
		t.Fatalf("slider: zoom=%v slider=%d", s.Zoom(), s.SliderValue())
	}
	_ = s.SetZoom(6)
	if s.SliderValue() != zoom.SliderMax || s.Zoom() != 6 {
		t.Fatalf("slider saturates without capping zoom: zoom=%v slider=%d", s.Zoom(), s.SliderValue())
	}
	_ = s.ResetZoom()
	if s.Zoom() != 1.0 {
		t.Fatalf("reset: %v", s.Zoom())
	}
}

func TestFitUsesViewportAndPageSize(t *testing.T) {
	s, _, _ := openStub(t, 2)
	s.SetViewport(1200, 400)
	if err := s.FitWidth(); err != nil {
		t.Fatalf("FitWidth: %v", err)
	}
	if s.Zoom() != 2.0 {
		t.Fatalf("FitWidth zoom = %v, want 2.0", s.Zoom())
	}
	if err := s.FitHeight(); err != nil {
		t.Fatalf("FitHeight: %v", err)
	}
	if s.Zoom() != 0.5 {
		t.Fatalf("FitHeight zoom = %v, want 0.5", s.Zoom())
	}
}

func TestFitWithEmptyViewportIsIgnored(t *testing.T) {
	s, _, changes := openStub(t, 2)
	_ = s.SetZoom(1.7)
	n := len(*changes)
	if err := s.FitWidth(); err != nil {
		t.Fatalf("FitWidth with zero viewport must not fail: %v", err)
	}
	if s.Zoom() != 1.7 || len(*changes) != n {
		t.Fatalf("FitWidth with zero viewport must be a no-op")
	}
}

func TestAreaZoom(t *testing.T) {
	s, _, _ := openStub(t, 1)
	s.SetViewport(800, 800)
	applied, err := s.AreaZoom(5, 200)
	if err != nil || applied || s.Zoom() != 1.0 {
		t.Fatalf("small selection must be rejected: applied=%v err=%v zoom=%v", applied, err, s.Zoom())
	}
	applied, err = s.AreaZoom(100, 100)
	if err != nil || !applied || s.Zoom() != 8.0 {
		t.Fatalf("area zoom: applied=%v err=%v zoom=%v", applied, err, s.Zoom())
	}
}

func TestAreaZoomWithEmptyViewportIsIgnored(t *testing.T) {
	s, _, changes := openStub(t, 1)
	_ = s.SetZoom(2.5)
	n := len(*changes)
	applied, err := s.AreaZoom(100, 100)
	if err != nil || applied {
		t.Fatalf("area zoom before layout: applied=%v err=%v", applied, err)
	}
	if s.Zoom() != 2.5 || len(*changes) != n {
		t.Fatalf("zoom = %v, want 2.5 and no change notification", s.Zoom())
	}
}

func TestCloseReleasesHandleOnce(t *testing.T) {
	s, b, _ := openStub(t, 3)
	if b.OpenHandles() != 1 {
		t.Fatalf("expected one open handle")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}
	if b.OpenHandles() != 0 {
		t.Fatalf("handle not released")
	}
	if !errors.Is(s.GoToPage(0), ErrClosed) || !errors.Is(s.SetZoom(2), ErrClosed) || !errors.Is(s.NextPage(), ErrClosed) {
		t.Fatalf("closed session must reject operations")
	}
	if s.State() != Closed {
		t.Fatalf("state = %v", s.State())
	}
}

func TestEmptySessionRejectsNavigation(t *testing.T) {
	s := New(0)
	if !errors.Is(s.GoToPage(0), ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing an empty session: %v", err)
	}
	b := document.NewStubBackend()
	b.Add("/a.pdf", 1, document.Size{Width: 1, Height: 1})
	h, _ := b.Open("/a.pdf")
	if !errors.Is(s.Open(h, nil), ErrClosed) {
		t.Fatalf("closed session must not reopen")
	}
}
