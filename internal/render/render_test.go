package render

import (
	"errors"
	"testing"
	"time"

	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/session"
)

func stubHandle(t *testing.T) (document.Handle, *document.StubBackend) {
	t.Helper()
	b := document.NewStubBackend()
	b.Add("/a.pdf", 3, document.Size{Width: 100, Height: 200})
	h, err := b.Open("/a.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, b
}

func TestNewerRequestSupersedesOlder(t *testing.T) {
	h, _ := stubHandle(t)
	tr := NewTracker()

	first := NewRequest(session.Change{ID: 1, Page: 0, Zoom: 1})
	tr.Begin(first)
	second := NewRequest(session.Change{ID: 1, Page: 1, Zoom: 2})
	tr.Begin(second)
	if first.Token == second.Token {
		t.Fatalf("tokens must differ")
	}

	if err := tr.Complete(Rasterize(h, second)); err != nil {
		t.Fatalf("complete newest: %v", err)
	}
	if err := tr.Complete(Rasterize(h, first)); !errors.Is(err, ErrStale) {
		t.Fatalf("late result of older request must be stale, got %v", err)
	}
	f, ok := tr.Frame(1)
	if !ok || f.Request.Page != 1 || f.Image.Bounds().Dx() != 200 {
		t.Fatalf("frame = %+v ok=%v", f.Request, ok)
	}
}

func TestFailedRenderKeepsPreviousFrame(t *testing.T) {
	h, b := stubHandle(t)
	tr := NewTracker()

	ok := NewRequest(session.Change{ID: 2, Page: 0, Zoom: 1})
	tr.Begin(ok)
	if err := tr.Complete(Rasterize(h, ok)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	b.FailPage(2, errors.New("corrupt stream"))
	bad := NewRequest(session.Change{ID: 2, Page: 2, Zoom: 1})
	tr.Begin(bad)
	err := tr.Complete(Rasterize(h, bad))
	if !errors.Is(err, document.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	f, found := tr.Frame(2)
	if !found || f.Request.Token != ok.Token {
		t.Fatalf("previous frame must stay in place")
	}
}

func TestUnknownSessionResultIsStale(t *testing.T) {
	h, _ := stubHandle(t)
	tr := NewTracker()
	req := NewRequest(session.Change{ID: 3, Page: 0, Zoom: 1})
	tr.Begin(req)
	tr.Forget(3)
	if err := tr.Complete(Rasterize(h, req)); !errors.Is(err, ErrStale) {
		t.Fatalf("result for a forgotten session must be stale, got %v", err)
	}
	if err := tr.Complete(Rasterize(nil, req)); !errors.Is(err, ErrStale) {
		t.Fatalf("got %v", err)
	}
}

func TestDebouncerKeepsOnlyNewestGeneration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Delay() != 200*time.Millisecond {
		t.Fatalf("default delay = %v", d.Delay())
	}
	g1 := d.Bump()
	g2 := d.Bump()
	g3 := d.Bump()
	if d.Settled(g1) || d.Settled(g2) {
		t.Fatalf("older generations must not settle")
	}
	if !d.Settled(g3) {
		t.Fatalf("newest generation must settle")
	}
}
