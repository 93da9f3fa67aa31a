// Package document is the boundary to the PDF engine: it opens files, reports
// page geometry and rasterizes pages. Everything above this package works in
// page indexes and zoom factors only.
package document

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrOpen is the class of failures to open a document: bad path,
	// unreadable or corrupt file.
	ErrOpen = errors.New("document: open failed")
	// ErrRender is the class of failures to rasterize a page.
	ErrRender = errors.New("document: render failed")
	// ErrClosed is returned by handles used after Close.
	ErrClosed = errors.New("document: handle closed")
)

// OpenError carries the path that failed to open.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("document: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrOpen, e.Err} }

// RenderError carries the page index that failed to rasterize.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("document: render page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() []error { return []error{ErrRender, e.Err} }

// Size is a page size in PDF points (1/72 inch).
type Size struct {
	Width  float64
	Height float64
}

// Backend opens documents.
type Backend interface {
	Open(path string) (Handle, error)
}

// Handle is one open document. A handle is owned by exactly one session and
// must be closed by it.
type Handle interface {
	Path() string
	PageCount() int
	PageSize(page int) (Size, error)
	// Rasterize renders page at zoom; zoom 1.0 yields one pixel per point.
	Rasterize(page int, zoom float64) (*image.RGBA, error)
	Close() error
}

func checkPage(page, count int) error {
	if page < 0 || page >= count {
		return fmt.Errorf("page %d outside [0, %d)", page, count)
	}
	return nil
}
