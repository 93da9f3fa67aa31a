package document

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the PDF user-space resolution; rasterizing at
// zoom*pointsPerInch dpi yields zoom pixels per point.
const pointsPerInch = 72.0

// FitzBackend opens documents with MuPDF through go-fitz.
type FitzBackend struct{}

// NewFitzBackend returns the MuPDF-backed document backend.
func NewFitzBackend() *FitzBackend { return &FitzBackend{} }

// Open opens path and reads its page count once.
func (FitzBackend) Open(path string) (Handle, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &fitzHandle{path: path, doc: doc, pages: doc.NumPage()}, nil
}

type fitzHandle struct {
	mu     sync.Mutex
	path   string
	doc    *fitz.Document
	pages  int
	closed bool
}

func (h *fitzHandle) Path() string   { return h.path }
func (h *fitzHandle) PageCount() int { return h.pages }

func (h *fitzHandle) PageSize(page int) (Size, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Size{}, ErrClosed
	}
	if err := checkPage(page, h.pages); err != nil {
		return Size{}, err
	}
	r, err := h.doc.Bound(page)
	if err != nil {
		return Size{}, fmt.Errorf("document: bound page %d: %w", page, err)
	}
	return Size{Width: float64(r.Dx()), Height: float64(r.Dy())}, nil
}

func (h *fitzHandle) Rasterize(page int, zoom float64) (*image.RGBA, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, &RenderError{Page: page, Err: ErrClosed}
	}
	if err := checkPage(page, h.pages); err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	if !(zoom > 0) {
		return nil, &RenderError{Page: page, Err: errors.New("zoom must be positive")}
	}
	img, err := h.doc.ImageDPI(page, zoom*pointsPerInch)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	return img, nil
}

func (h *fitzHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.doc.Close()
}
