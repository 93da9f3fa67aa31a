package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// place positions an image span of imgLen inside a viewport span of vpLen.
// A smaller image is centered; a larger one is anchored at the start and
// shifted by scroll, which is clamped to the overflow.
func place(imgLen, vpLen, scroll int) (dstOff, srcMin, srcLen, clamped int) {
	if imgLen <= vpLen {
		return (vpLen - imgLen) / 2, 0, imgLen, 0
	}
	clamped = min(max(scroll, 0), imgLen-vpLen)
	return 0, clamped, vpLen, clamped
}

// Surface maps a device-pixel viewport onto a grid of terminal cells. Each
// cell shows two vertically stacked pixels as an upper half block.
type Surface struct {
	Cols, Rows   int
	CellW, CellH int
	Background   color.RGBA
}

// ViewportPx is the viewport size in device pixels.
func (s Surface) ViewportPx() (int, int) {
	return s.Cols * s.CellW, s.Rows * s.CellH
}

// CellsToPx converts a cell extent to device pixels.
func (s Surface) CellsToPx(cols, rows int) (int, int) {
	return cols * s.CellW, rows * s.CellH
}

// Selection is a rectangle in surface cell coordinates.
type Selection struct {
	From, To image.Point
}

// Rect returns the normalized inclusive cell rectangle.
func (sel Selection) Rect() image.Rectangle {
	return image.Rectangle{Min: sel.From, Max: sel.To}.Canon()
}

// Size is the selection's extent in cells, counting both edges.
func (sel Selection) Size() (int, int) {
	r := sel.Rect()
	return r.Dx() + 1, r.Dy() + 1
}

// Compose scales the visible part of img into a half-resolution cell
// raster. It returns the raster and the clamped scroll offset.
func (s Surface) Compose(img image.Image, scroll image.Point) (*image.RGBA, image.Point) {
	dst := image.NewRGBA(image.Rect(0, 0, s.Cols, s.Rows*2))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)
	if img == nil || s.Cols <= 0 || s.Rows <= 0 {
		return dst, image.Point{}
	}
	vpW, vpH := s.ViewportPx()
	b := img.Bounds()
	dx, sx, sw, cx := place(b.Dx(), vpW, scroll.X)
	dy, sy, sh, cy := place(b.Dy(), vpH, scroll.Y)
	if sw <= 0 || sh <= 0 {
		return dst, image.Point{X: cx, Y: cy}
	}
	sr := image.Rect(b.Min.X+sx, b.Min.Y+sy, b.Min.X+sx+sw, b.Min.Y+sy+sh)
	dr := image.Rect(
		dx*s.Cols/vpW, dy*s.Rows*2/vpH,
		(dx+sw)*s.Cols/vpW, (dy+sh)*s.Rows*2/vpH,
	)
	if dr.Empty() {
		dr.Max = dr.Min.Add(image.Pt(1, 1))
	}
	draw.ApproxBiLinear.Scale(dst, dr, img, sr, draw.Src, nil)
	return dst, image.Point{X: cx, Y: cy}
}

// Outline paints the border of sel onto a raster produced by Compose.
func Outline(dst *image.RGBA, sel Selection, c color.RGBA) {
	r := sel.Rect()
	top, bottom := r.Min.Y*2, r.Max.Y*2+1
	for x := r.Min.X; x <= r.Max.X; x++ {
		dst.SetRGBA(x, top, c)
		dst.SetRGBA(x, bottom, c)
	}
	for y := top; y <= bottom; y++ {
		dst.SetRGBA(r.Min.X, y, c)
		dst.SetRGBA(r.Max.X, y, c)
	}
}

// Cells renders a Compose raster as terminal text, one line per cell row.
// Runs of identical cells share one styled segment.
func Cells(raster *image.RGBA) string {
	b := raster.Bounds()
	rows := b.Dy() / 2
	var out strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var fg, bg color.RGBA
		flush := func() {
			if run.Len() == 0 {
				return
			}
			out.WriteString(lipgloss.NewStyle().Foreground(hex(fg)).Background(hex(bg)).Render(run.String()))
			run.Reset()
		}
		for x := 0; x < b.Dx(); x++ {
			top := raster.RGBAAt(b.Min.X+x, b.Min.Y+2*y)
			bottom := raster.RGBAAt(b.Min.X+x, b.Min.Y+2*y+1)
			if run.Len() > 0 && (top != fg || bottom != bg) {
				flush()
			}
			fg, bg = top, bottom
			run.WriteString("▀")
		}
		flush()
	}
	return out.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func rgba(c lipgloss.Color) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(string(c), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
