package document

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"
)

// StubBackend serves documents from memory. Each registered path has a fixed
// list of page sizes; rasterizing fills an image of the scaled size. Packages
// above document test against it.
type StubBackend struct {
	mu    sync.Mutex
	docs  map[string][]Size
	open  int
	fails map[int]error
}

// NewStubBackend returns an empty stub backend.
func NewStubBackend() *StubBackend {
	return &StubBackend{docs: make(map[string][]Size), fails: make(map[int]error)}
}

// Add registers path with pages pages of the given size.
func (b *StubBackend) Add(path string, pages int, size Size) {
	sizes := make([]Size, pages)
	for i := range sizes {
		sizes[i] = size
	}
	b.AddSizes(path, sizes...)
}

// AddSizes registers path with one entry per page.
func (b *StubBackend) AddSizes(path string, sizes ...Size) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[path] = append([]Size(nil), sizes...)
}

// FailPage makes every later rasterization of page fail with err.
func (b *StubBackend) FailPage(page int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails[page] = err
}

// OpenHandles reports how many handles are open and not yet closed.
func (b *StubBackend) OpenHandles() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *StubBackend) Open(path string) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sizes, ok := b.docs[path]
	if !ok {
		return nil, &OpenError{Path: path, Err: os.ErrNotExist}
	}
	b.open++
	return &stubHandle{backend: b, path: path, sizes: sizes}, nil
}

// stubHandle shares its backend's mutex; Rasterize runs off the UI goroutine.
type stubHandle struct {
	backend *StubBackend
	path    string
	sizes   []Size
	closed  bool
}

func (h *stubHandle) isClosed() bool {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	return h.closed
}

func (h *stubHandle) Path() string   { return h.path }
func (h *stubHandle) PageCount() int { return len(h.sizes) }

func (h *stubHandle) PageSize(page int) (Size, error) {
	if h.isClosed() {
		return Size{}, ErrClosed
	}
	if err := checkPage(page, len(h.sizes)); err != nil {
		return Size{}, err
	}
	return h.sizes[page], nil
}

func (h *stubHandle) Rasterize(page int, zoom float64) (*image.RGBA, error) {
	if h.isClosed() {
		return nil, &RenderError{Page: page, Err: ErrClosed}
	}
	if err := checkPage(page, len(h.sizes)); err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	if !(zoom > 0) {
		return nil, &RenderError{Page: page, Err: errors.New("zoom must be positive")}
	}
	h.backend.mu.Lock()
	failErr := h.backend.fails[page]
	h.backend.mu.Unlock()
	if failErr != nil {
		return nil, &RenderError{Page: page, Err: failErr}
	}
	size := h.sizes[page]
	w := int(math.Round(size.Width * zoom))
	hgt := int(math.Round(size.Height * zoom))
	if w <= 0 || hgt <= 0 {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("empty raster %dx%d", w, hgt)}
	}
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	shade := uint8(255 - (page*16)%128)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = shade
		img.Pix[i+1] = shade
		img.Pix[i+2] = shade
		img.Pix[i+3] = 0xff
	}
	return img, nil
}

func (h *stubHandle) Close() error {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.backend.open--
	return nil
}
