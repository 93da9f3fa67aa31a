// Package render turns committed session changes into rasterization requests
// and decides which finished raster is shown. A render in flight is never
// cancelled; a newer request for the same session simply wins.
package render

import (
	"errors"
	"image"

	"github.com/google/uuid"

	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/session"
)

// Request asks for one page of one session at one zoom.
type Request struct {
	SessionID session.ID
	Page      int
	Zoom      float64
	Token     uuid.UUID
}

// NewRequest stamps a fresh token on a request for c.
func NewRequest(c session.Change) Request {
	return Request{SessionID: c.ID, Page: c.Page, Zoom: c.Zoom, Token: uuid.New()}
}

// Result is the outcome of rasterizing a Request.
type Result struct {
	Request Request
	Image   *image.RGBA
	Err     error
}

// Rasterize runs req against h. It blocks for as long as the backend does.
func Rasterize(h document.Handle, req Request) Result {
	if h == nil {
		return Result{Request: req, Err: &document.RenderError{Page: req.Page, Err: document.ErrClosed}}
	}
	img, err := h.Rasterize(req.Page, req.Zoom)
	return Result{Request: req, Image: img, Err: err}
}

// Frame is the image currently shown for a session.
type Frame struct {
	Request Request
	Image   *image.RGBA
}

// Tracker remembers the newest request per session and the last frame that
// rendered successfully.
type Tracker struct {
	latest map[session.ID]uuid.UUID
	frames map[session.ID]Frame
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[session.ID]uuid.UUID), frames: make(map[session.ID]Frame)}
}

// Begin records req as the newest request for its session.
func (t *Tracker) Begin(req Request) {
	t.latest[req.SessionID] = req.Token
}

// ErrStale marks a result superseded by a newer request.
var ErrStale = errors.New("render: superseded")

// Complete applies res. Results for superseded requests are dropped with
// ErrStale. A failed render keeps the previous frame and returns its error.
func (t *Tracker) Complete(res Result) error {
	id := res.Request.SessionID
	latest, ok := t.latest[id]
	if !ok || latest != res.Request.Token {
		return ErrStale
	}
	if res.Err != nil {
		return res.Err
	}
	t.frames[id] = Frame{Request: res.Request, Image: res.Image}
	return nil
}

// Frame returns the frame shown for id.
func (t *Tracker) Frame(id session.ID) (Frame, bool) {
	f, ok := t.frames[id]
	return f, ok
}

// Forget drops everything known about id.
func (t *Tracker) Forget(id session.ID) {
	delete(t.latest, id)
	delete(t.frames, id)
}
