package imaging

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/lucasb-eyer/go-colorful"
)

// Adjustment factor bounds. NeutralFactor leaves the image unchanged.
const (
	MinFactor     = 0.0
	NeutralFactor = 1.0
	MaxFactor     = 2.0
)

// Engine errors.
var (
	// ErrNoSource is returned when an operation needs an image but none was supplied.
	ErrNoSource = errors.New("no source image")

	// ErrTransformUnavailable is returned when the colour transform cannot produce
	// an output for the given input.
	ErrTransformUnavailable = errors.New("transform unavailable")
)

// Rec. 709 luma weights, as used by the colour-controls saturation filter.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// ColorModel selects how saturation is scaled.
type ColorModel string

// Supported colour models.
const (
	// ModelLuma interpolates every pixel between its luma grey and its own colour.
	ModelLuma ColorModel = "luma"

	// ModelHCL scales chroma in the perceptual HCL space and clamps to sRGB.
	ModelHCL ColorModel = "hcl"
)

// ParseColorModel converts a config string into a ColorModel.
// The empty string selects ModelLuma.
func ParseColorModel(s string) (ColorModel, error) {
	switch ColorModel(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModelLuma:
		return ModelLuma, nil
	case ModelHCL:
		return ModelHCL, nil
	default:
		return "", fmt.Errorf("unknown color model %q (must be luma or hcl)", s)
	}
}

// Engine is the saturation adjustment pipeline.
//
// The zero value uses ModelLuma. An Engine holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	Model ColorModel
}

// Apply returns a new image with per-pixel saturation scaled by factor.
//
// Parameters:
//   - src: The untouched baseline image. It is never modified.
//   - factor: Saturation multiplier. 0 yields grayscale, 1 is a no-op, values
//     above 1 oversaturate. Range checking is the caller's job.
//
// Returns:
//   - *SourceImage: A new *image.RGBA raster with the bounds, orientation and
//     scale of src.
//   - error: ErrNoSource if src is nil; ErrTransformUnavailable (wrapped) if src
//     has no pixels or empty bounds, the model is unknown, or the backend fails.
//
// Every call starts from src, so calling Apply repeatedly with different factors
// never compounds earlier adjustments.
func (e Engine) Apply(src *SourceImage, factor float64) (out *SourceImage, err error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if src.Pixels == nil {
		return nil, fmt.Errorf("%w: image has no pixels", ErrTransformUnavailable)
	}
	if src.Pixels.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has empty bounds %v", ErrTransformUnavailable, src.Pixels.Bounds())
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: factor %v is not finite", ErrTransformUnavailable, factor)
	}

	var fn func(color.RGBA) color.RGBA
	switch e.Model {
	case "", ModelLuma:
		fn = lumaSaturation(factor)
	case ModelHCL:
		fn = hclSaturation(factor)
	default:
		return nil, fmt.Errorf("%w: unknown color model %q", ErrTransformUnavailable, e.Model)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrTransformUnavailable, r)
		}
	}()

	return src.withPixels(adjust.Apply(src.Pixels, fn)), nil
}

// Saturate applies factor to src with the default (luma) model.
func Saturate(src *SourceImage, factor float64) (*SourceImage, error) {
	return Engine{}.Apply(src, factor)
}

// lumaSaturation works on premultiplied values: the interpolation is linear, so
// it commutes with premultiplication and results only need clamping to [0, A].
func lumaSaturation(factor float64) func(color.RGBA) color.RGBA {
	return func(c color.RGBA) color.RGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		l := lumaR*r + lumaG*g + lumaB*b
		limit := float64(c.A)
		return color.RGBA{
			R: clampChannel(l+(r-l)*factor, limit),
			G: clampChannel(l+(g-l)*factor, limit),
			B: clampChannel(l+(b-l)*factor, limit),
			A: c.A,
		}
	}
}

func hclSaturation(factor float64) func(color.RGBA) color.RGBA {
	return func(c color.RGBA) color.RGBA {
		if c.A == 0 {
			return c
		}
		col, _ := colorful.MakeColor(c)
		h, chroma, l := col.Hcl()
		r, g, b := colorful.Hcl(h, chroma*factor, l).Clamped().RGB255()
		if c.A == 0xff {
			return color.RGBA{R: r, G: g, B: b, A: 0xff}
		}
		a := uint32(c.A)
		return color.RGBA{
			R: uint8((uint32(r)*a + 127) / 255),
			G: uint8((uint32(g)*a + 127) / 255),
			B: uint8((uint32(b)*a + 127) / 255),
			A: c.A,
		}
	}
}

func clampChannel(v, limit float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v > limit {
		v = limit
	}
	return uint8(v + 0.5)
}
