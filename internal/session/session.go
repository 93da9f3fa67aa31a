// Package session holds the view state of one open document: which page is
// shown, at what zoom, and the document handle it owns.
//
// A session moves Empty -> Ready -> Closed. Every committed page or zoom
// change is reported to the session's Observer, which turns it into a
// render request and a persistence write. Sessions are driven from a single
// event loop and are not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/persist"
	"github.com/jask/tabreader/internal/zoom"
)

var (
	// ErrClosed indicates the session can no longer be used.
	ErrClosed = errors.New("session: closed")
	// ErrNotOpen indicates no document has been loaded yet.
	ErrNotOpen = errors.New("session: no document")
	// ErrAlreadyOpen indicates Open was called on a Ready session.
	ErrAlreadyOpen = errors.New("session: document already open")
	// ErrOutOfRange indicates an explicit page request outside the document.
	ErrOutOfRange = errors.New("session: page out of range")
)

// RangeError is returned by GoToPage for an invalid page index.
type RangeError struct {
	Page      int
	PageCount int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("session: page %d out of range [0, %d)", e.Page, e.PageCount)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// ID identifies a session for the lifetime of the process. IDs are never
// reused, even after the session closes.
type ID uint64

// String renders the id in its persisted form.
func (id ID) String() string { return fmt.Sprintf("tab_%d", id) }

// State is the lifecycle state of a session.
type State int

const (
	Empty State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Viewport is the last known size of the rendering surface in device
// pixels. It only feeds fit computations and is never persisted.
type Viewport struct {
	Width  int
	Height int
}

// Change describes a committed navigation or zoom change.
type Change struct {
	ID   ID
	Path string
	Page int
	Zoom float64
}

// Observer receives every committed change.
type Observer func(Change)

// Session is the state of one open document.
type Session struct {
	id        ID
	path      string
	handle    document.Handle
	pageCount int
	page      int
	zoom      float64
	viewport  Viewport
	state     State
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithObserver sets the change observer.
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an Empty session.
func New(id ID, opts ...Option) *Session {
	s := &Session{id: id, zoom: zoom.Default, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads h and moves the session to Ready. The page count is read once.
// When restored is non-nil its page and zoom are applied; a restored page
// outside the document falls back to the first page.
func (s *Session) Open(h document.Handle, restored *persist.Entry) error {
	switch s.state {
	case Closed:
		return ErrClosed
	case Ready:
		return ErrAlreadyOpen
	}
	if h == nil {
		return errors.New("session: nil document handle")
	}
	s.handle = h
	s.path = h.Path()
	s.pageCount = h.PageCount()
	s.page = 0
	s.zoom = zoom.Default
	if restored != nil {
		if restored.CurrentPage >= 0 && restored.CurrentPage < s.pageCount {
			s.page = restored.CurrentPage
		} else {
			s.logger.Debug("discarding restored page", "session", s.id, "page", restored.CurrentPage, "pages", s.pageCount)
		}
		s.zoom = zoom.Clamp(restored.ZoomFactor)
	}
	s.state = Ready
	s.commit()
	return nil
}

func (s *Session) usable() error {
	switch s.state {
	case Closed:
		return ErrClosed
	case Empty:
		return ErrNotOpen
	}
	return nil
}

// GoToPage shows page n. It is the single entry point for navigation; an
// out-of-range n leaves the state unchanged and returns a *RangeError.
func (s *Session) GoToPage(n int) error {
	if err := s.usable(); err != nil {
		return err
	}
	if n < 0 || n >= s.pageCount {
		return &RangeError{Page: n, PageCount: s.pageCount}
	}
	s.page = n
	s.commit()
	return nil
}

// NextPage advances one page. It does nothing on the last page.
func (s *Session) NextPage() error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.page >= s.pageCount-1 {
		return nil
	}
	return s.GoToPage(s.page + 1)
}

// PrevPage goes back one page. It does nothing on the first page.
func (s *Session) PrevPage() error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.page <= 0 {
		return nil
	}
	return s.GoToPage(s.page - 1)
}

// SetZoom sets the zoom factor, raised to zoom.MinZoom if needed.
func (s *Session) SetZoom(z float64) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.zoom = zoom.Clamp(z)
	s.commit()
	return nil
}

func (s *Session) ZoomIn() error    { return s.SetZoom(zoom.In(s.zoom)) }
func (s *Session) ZoomOut() error   { return s.SetZoom(zoom.Out(s.zoom)) }
func (s *Session) ResetZoom() error { return s.SetZoom(zoom.Reset()) }

// SetSlider applies a slider position in percent.
func (s *Session) SetSlider(value int) error {
	return s.SetZoom(zoom.FromSlider(value))
}

// SliderValue is the slider position for the current zoom, saturated to
// the slider range.
func (s *Session) SliderValue() int { return zoom.ToSlider(s.zoom) }

// FitWidth zooms so the current page spans the viewport width. A zero-sized
// viewport or page leaves the zoom alone.
func (s *Session) FitWidth() error {
	return s.fit(func(size document.Size) (float64, error) {
		return zoom.FitWidth(size.Width, float64(s.viewport.Width))
	})
}

// FitHeight zooms so the current page spans the viewport height.
func (s *Session) FitHeight() error {
	return s.fit(func(size document.Size) (float64, error) {
		return zoom.FitHeight(size.Height, float64(s.viewport.Height))
	})
}

func (s *Session) fit(compute func(document.Size) (float64, error)) error {
	if err := s.usable(); err != nil {
		return err
	}
	size, err := s.handle.PageSize(s.page)
	if err != nil {
		return fmt.Errorf("session: page size: %w", err)
	}
	z, err := compute(size)
	if errors.Is(err, zoom.ErrInvalidDimension) {
		// Zero sizes show up mid-layout; ignored.
		s.logger.Debug("fit ignored", "session", s.id, "page", size, "viewport", s.viewport)
		return nil
	}
	if err != nil {
		return err
	}
	return s.SetZoom(z)
}

// AreaZoom zooms so a selection of selW x selH surface pixels fills the
// viewport. applied is false when the selection is too small or no viewport
// has been laid out yet.
func (s *Session) AreaZoom(selW, selH int) (applied bool, err error) {
	if err := s.usable(); err != nil {
		return false, err
	}
	if s.viewport.Width <= 0 || s.viewport.Height <= 0 {
		s.logger.Debug("area zoom ignored", "session", s.id, "viewport", s.viewport)
		return false, nil
	}
	z, ok := zoom.AreaZoom(float64(selW), float64(selH), float64(s.viewport.Width), float64(s.viewport.Height), s.zoom)
	if !ok {
		return false, nil
	}
	return true, s.SetZoom(z)
}

// SetViewport records the rendering surface size.
func (s *Session) SetViewport(width, height int) {
	s.viewport = Viewport{Width: width, Height: height}
}

// Close releases the document handle. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.state == Closed {
		return nil
	}
	s.state = Closed
	if s.handle == nil {
		return nil
	}
	h := s.handle
	s.handle = nil
	return h.Close()
}

func (s *Session) ID() ID                  { return s.id }
func (s *Session) Path() string            { return s.path }
func (s *Session) PageCount() int          { return s.pageCount }
func (s *Session) Page() int               { return s.page }
func (s *Session) Zoom() float64           { return s.zoom }
func (s *Session) Viewport() Viewport      { return s.viewport }
func (s *Session) State() State            { return s.state }
func (s *Session) Handle() document.Handle { return s.handle }
func (s *Session) Name() string            { return filepath.Base(s.path) }

// Title is the tab label, e.g. "paper.pdf - Page 3/12".
func (s *Session) Title() string {
	if s.state != Ready {
		return s.Name()
	}
	return fmt.Sprintf("%s - Page %d/%d", s.Name(), s.page+1, s.pageCount)
}

// Snapshot returns the persisted form of the current state.
func (s *Session) Snapshot() persist.Entry {
	return persist.Entry{CurrentPage: s.page, ZoomFactor: s.zoom, Path: s.path}
}

func (s *Session) commit() {
	if s.observer == nil {
		return
	}
	s.observer(Change{ID: s.id, Path: s.path, Page: s.page, Zoom: s.zoom})
}
