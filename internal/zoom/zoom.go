// Package zoom holds the pure zoom-factor arithmetic shared by every open
// document: step zoom, fit to the viewport, area zoom and the slider mapping.
package zoom

import (
	"errors"
	"math"
)

const (
	// Default is the zoom factor of a freshly opened document.
	Default = 1.0
	// MinZoom is the smallest zoom factor a document may hold.
	MinZoom = 0.1
	// Step is the multiplier applied by ZoomIn and divided out by ZoomOut.
	Step = 1.2

	// SliderMin and SliderMax bound the slider's displayable range (percent).
	SliderMin = 10
	SliderMax = 200

	// MinSelection is the largest selection edge, in pixels, that AreaZoom
	// still rejects as accidental.
	MinSelection = 10
)

// ErrInvalidDimension reports a fit request against a zero or negative
// page or viewport dimension.
var ErrInvalidDimension = errors.New("zoom: invalid dimension")

// In returns the next zoom step up.
func In(current float64) float64 {
	return current * Step
}

// Out returns the next zoom step down, never below MinZoom.
func Out(current float64) float64 {
	return math.Max(current/Step, MinZoom)
}

// Reset returns the default zoom.
func Reset() float64 { return Default }

// Clamp raises z to MinZoom. NaN collapses to MinZoom as well.
func Clamp(z float64) float64 {
	if math.IsNaN(z) || z < MinZoom {
		return MinZoom
	}
	return z
}

// FitWidth returns the zoom at which a page of pageWidth fills viewportWidth.
func FitWidth(pageWidth, viewportWidth float64) (float64, error) {
	return fit(pageWidth, viewportWidth)
}

// FitHeight returns the zoom at which a page of pageHeight fills viewportHeight.
func FitHeight(pageHeight, viewportHeight float64) (float64, error) {
	return fit(pageHeight, viewportHeight)
}

func fit(page, viewport float64) (float64, error) {
	if !(page > 0) || !(viewport > 0) {
		return 0, ErrInvalidDimension
	}
	return viewport / page, nil
}

// AreaZoom scales current so that a selection of selW x selH surface pixels
// fills the viewport. The selection is measured on the already-zoomed
// surface, hence the multiplication by current. ok is false when either
// selection edge is MinSelection pixels or less, or when the viewport has no
// area yet; callers keep their zoom.
func AreaZoom(selW, selH, viewportW, viewportH, current float64) (z float64, ok bool) {
	if selW <= MinSelection || selH <= MinSelection {
		return current, false
	}
	if !(viewportW > 0) || !(viewportH > 0) {
		return current, false
	}
	return math.Min(viewportW/selW, viewportH/selH) * current, true
}

// FromSlider converts a slider position (percent) into a zoom factor.
func FromSlider(value int) float64 {
	return float64(value) / 100.0
}

// ToSlider converts a zoom factor into a slider position. The result is
// clamped to the slider range for display only; the zoom itself may lie
// outside it.
func ToSlider(z float64) int {
	v := int(math.Round(z * 100))
	if v < SliderMin {
		return SliderMin
	}
	if v > SliderMax {
		return SliderMax
	}
	return v
}

// Percent is the zoom label value, truncated like the slider label of the
// status bar.
func Percent(z float64) int {
	return int(z * 100)
}
