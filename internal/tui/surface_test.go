package tui

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestPlaceCentersSmallerImage(t *testing.T) {
	dst, src, n, scroll := place(100, 300, 40)
	if dst != 100 || src != 0 || n != 100 || scroll != 0 {
		t.Fatalf("place = %d %d %d %d, want 100 0 100 0", dst, src, n, scroll)
	}
}

func TestPlaceAnchorsLargerImage(t *testing.T) {
	dst, src, n, scroll := place(500, 300, 40)
	if dst != 0 || src != 40 || n != 300 || scroll != 40 {
		t.Fatalf("place = %d %d %d %d, want 0 40 300 40", dst, src, n, scroll)
	}
	_, src, _, scroll = place(500, 300, 900)
	if src != 200 || scroll != 200 {
		t.Fatalf("scroll past the end should clamp to 200, got %d", scroll)
	}
	_, src, _, _ = place(500, 300, -5)
	if src != 0 {
		t.Fatalf("negative scroll should clamp to 0, got %d", src)
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestComposeCentersPage(t *testing.T) {
	bg := color.RGBA{A: 0xff}
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	s := Surface{Cols: 20, Rows: 10, CellW: 8, CellH: 16, Background: bg}

	// 160x320 px viewport, 80x160 px page: centered at 40,80.
	raster, scroll := s.Compose(solid(80, 160, white), image.Point{X: 30, Y: 30})
	if scroll != (image.Point{}) {
		t.Fatalf("a page that fits cannot scroll, got %v", scroll)
	}
	if raster.Bounds().Dx() != 20 || raster.Bounds().Dy() != 20 {
		t.Fatalf("raster = %v, want 20x20", raster.Bounds())
	}
	if got := raster.RGBAAt(0, 0); got != bg {
		t.Fatalf("corner = %v, want background", got)
	}
	if got := raster.RGBAAt(10, 10); got != white {
		t.Fatalf("center = %v, want page", got)
	}
	if got := raster.RGBAAt(4, 10); got != bg {
		t.Fatalf("left margin = %v, want background", got)
	}
}

func TestComposeAnchorsLargePageTopLeft(t *testing.T) {
	bg := color.RGBA{A: 0xff}
	page := solid(400, 800, color.RGBA{R: 0x80, A: 0xff})
	s := Surface{Cols: 20, Rows: 10, CellW: 8, CellH: 16, Background: bg}

	raster, scroll := s.Compose(page, image.Point{X: 1000, Y: 100})
	if scroll != (image.Point{X: 240, Y: 100}) {
		t.Fatalf("scroll = %v, want (240,100)", scroll)
	}
	if got := raster.RGBAAt(0, 0); got == bg {
		t.Fatal("a page larger than the viewport fills it from the top left")
	}
}

func TestCellsWidthMatchesColumns(t *testing.T) {
	s := Surface{Cols: 12, Rows: 3, CellW: 8, CellH: 16, Background: color.RGBA{A: 0xff}}
	raster, _ := s.Compose(solid(40, 40, color.RGBA{G: 0xff, A: 0xff}), image.Point{})
	Outline(raster, Selection{From: image.Pt(1, 0), To: image.Pt(3, 1)}, color.RGBA{B: 0xff, A: 0xff})

	lines := strings.Split(Cells(raster), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for i, l := range lines {
		if w := ansi.StringWidth(l); w != 12 {
			t.Fatalf("line %d width = %d, want 12", i, w)
		}
	}
}

func TestSelectionSizeIsInclusive(t *testing.T) {
	sel := Selection{From: image.Pt(9, 4), To: image.Pt(0, 0)}
	w, h := sel.Size()
	if w != 10 || h != 5 {
		t.Fatalf("size = %dx%d, want 10x5", w, h)
	}
}

func TestCleanDroppedPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	cases := map[string]string{
		"  /docs/a.pdf \n":                 "/docs/a.pdf",
		"'/docs/my file.pdf'":              "/docs/my file.pdf",
		`/docs/my\ file.pdf`:               "/docs/my file.pdf",
		"file:///docs/my%20file.pdf":       "/docs/my file.pdf",
		"~/papers/raft.pdf":                filepath.Join(home, "papers", "raft.pdf"),
		`"C:/Users/me/Downloads/paper.pdf"`: "C:/Users/me/Downloads/paper.pdf",
	}
	for in, want := range cases {
		if got := cleanDroppedPath(in); got != want {
			t.Errorf("cleanDroppedPath(%q) = %q, want %q", in, got, want)
		}
	}
}
