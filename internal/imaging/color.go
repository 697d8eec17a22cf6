package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// HSL is the space in which "saturation" is usually reported to users:
//   - Hue represents the color type (red, green, blue, etc.)
//   - Saturation represents color intensity (gray to vivid)
//   - Lightness represents brightness (black to white)
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The image to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: Non-nil if coordinates are outside the image bounds.
//
// The native color is converted to non-premultiplied 8-bit components before
// formatting, so semi-transparent pixels report their straight colour.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	px := img.At(x, y)
	_, _, _, a := px.RGBA()
	c, _ := colorful.MakeColor(px)
	r8, g8, b8 := c.RGB255()

	return &ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGBA: RGBAColor{R: r8, G: g8, B: b8, A: uint8(a >> 8)},
		HSL:  toHSL(c),
	}, nil
}

// SaturationStats summarises how saturated an image is.
type SaturationStats struct {
	// Mean is the average HSL saturation over visible pixels (0-100).
	Mean float64 `json:"mean"`

	// Max is the highest HSL saturation found (0-100).
	Max float64 `json:"max"`

	// GrayFraction is the share of visible pixels with saturation below 1% (0-1).
	GrayFraction float64 `json:"gray_fraction"`
}

// MeasureSaturation computes SaturationStats over all non-transparent pixels.
//
// Fully transparent pixels carry no colour and are skipped; an image with no
// visible pixels yields zero stats.
func MeasureSaturation(img image.Image) SaturationStats {
	bounds := img.Bounds()

	var sum, max float64
	var visible, gray int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			_, s, _ := c.Hsl()
			if math.IsNaN(s) {
				s = 0
			}
			sum += s
			if s > max {
				max = s
			}
			if s < 0.01 {
				gray++
			}
			visible++
		}
	}

	if visible == 0 {
		return SaturationStats{}
	}
	return SaturationStats{
		Mean:         round2(sum / float64(visible) * 100),
		Max:          round2(max * 100),
		GrayFraction: round2(float64(gray) / float64(visible)),
	}
}

func toHSL(c colorful.Color) HSLColor {
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	if math.IsNaN(s) {
		s = 0
	}
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
