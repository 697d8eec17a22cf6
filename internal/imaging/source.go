package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation describes how the stored pixels must be transformed to appear upright.
//
// Values follow the EXIF orientation tag numbering (1-8). The zero value and any
// unknown value are treated as OrientationUp.
type Orientation int

// EXIF orientation values.
const (
	OrientationUp            Orientation = 1 // stored upright
	OrientationUpMirrored    Orientation = 2 // horizontal flip
	OrientationDown          Orientation = 3 // rotated 180°
	OrientationDownMirrored  Orientation = 4 // vertical flip
	OrientationLeftMirrored  Orientation = 5 // transpose
	OrientationRight         Orientation = 6 // needs 90° clockwise rotation
	OrientationRightMirrored Orientation = 7 // transverse
	OrientationLeft          Orientation = 8 // needs 90° counter-clockwise rotation
)

// String returns a short name for the orientation.
func (o Orientation) String() string {
	switch o {
	case OrientationUpMirrored:
		return "up-mirrored"
	case OrientationDown:
		return "down"
	case OrientationDownMirrored:
		return "down-mirrored"
	case OrientationLeftMirrored:
		return "left-mirrored"
	case OrientationRight:
		return "right"
	case OrientationRightMirrored:
		return "right-mirrored"
	case OrientationLeft:
		return "left"
	default:
		return "up"
	}
}

// SourceImage is a captured raster together with its orientation and scale metadata.
//
// A SourceImage is immutable once created: nothing in this module writes to Pixels,
// and every adjustment produces a new SourceImage backed by a fresh raster. That is
// what allows the edit session to recompute previews from the same baseline any
// number of times.
type SourceImage struct {
	// Pixels holds the raster exactly as it was decoded or rendered.
	Pixels image.Image

	// Orientation tells consumers how to display Pixels upright.
	Orientation Orientation

	// Scale is the display scale of the image (points per pixel). Always > 0.
	Scale float64
}

// NewSourceImage wraps decoded pixels into a SourceImage.
//
// A non-positive scale is normalised to 1 and an out-of-range orientation to
// OrientationUp.
func NewSourceImage(px image.Image, orientation Orientation, scale float64) *SourceImage {
	if scale <= 0 {
		scale = 1
	}
	if orientation < OrientationUp || orientation > OrientationLeft {
		orientation = OrientationUp
	}
	return &SourceImage{
		Pixels:      px,
		Orientation: orientation,
		Scale:       scale,
	}
}

// withPixels returns a copy of s carrying px and the same metadata.
func (s *SourceImage) withPixels(px image.Image) *SourceImage {
	return &SourceImage{
		Pixels:      px,
		Orientation: s.Orientation,
		Scale:       s.Scale,
	}
}

// Bounds returns the bounds of the stored pixels.
func (s *SourceImage) Bounds() image.Rectangle {
	if s == nil || s.Pixels == nil {
		return image.Rectangle{}
	}
	return s.Pixels.Bounds()
}

// Oriented returns the pixels transformed so that they appear upright.
//
// For OrientationUp the stored pixels are returned as-is. Every other orientation
// produces a new *image.NRGBA.
func (s *SourceImage) Oriented() image.Image {
	switch s.Orientation {
	case OrientationUpMirrored:
		return imaging.FlipH(s.Pixels)
	case OrientationDown:
		return imaging.Rotate180(s.Pixels)
	case OrientationDownMirrored:
		return imaging.FlipV(s.Pixels)
	case OrientationLeftMirrored:
		return imaging.Transpose(s.Pixels)
	case OrientationRight:
		return imaging.Rotate270(s.Pixels)
	case OrientationRightMirrored:
		return imaging.Transverse(s.Pixels)
	case OrientationLeft:
		return imaging.Rotate90(s.Pixels)
	default:
		return s.Pixels
	}
}

// ImageInfo contains metadata about a SourceImage.
type ImageInfo struct {
	// Width is the upright width in pixels.
	Width int `json:"width"`

	// Height is the upright height in pixels.
	Height int `json:"height"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the raster type carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// Orientation is the EXIF-style orientation name ("up", "right", ...).
	Orientation string `json:"orientation"`

	// Scale is the display scale of the image.
	Scale float64 `json:"scale"`
}

// Info describes the image without touching its pixels.
//
// Width and Height are reported for the upright image, so a 400x300 raster with
// OrientationRight is reported as 300x400.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func (s *SourceImage) Info() (*ImageInfo, error) {
	if s == nil || s.Pixels == nil {
		return nil, ErrNoSource
	}
	bounds := s.Pixels.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch s.Pixels.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	w, h := bounds.Dx(), bounds.Dy()
	switch s.Orientation {
	case OrientationLeftMirrored, OrientationRight, OrientationRightMirrored, OrientationLeft:
		w, h = h, w
	}

	return &ImageInfo{
		Width:       w,
		Height:      h,
		ColorDepth:  colorDepth,
		HasAlpha:    hasAlpha,
		Orientation: s.Orientation.String(),
		Scale:       s.Scale,
	}, nil
}

// String implements fmt.Stringer for log output.
func (s *SourceImage) String() string {
	if s == nil || s.Pixels == nil {
		return "<no image>"
	}
	b := s.Pixels.Bounds()
	return fmt.Sprintf("%dx%d@%gx/%s", b.Dx(), b.Dy(), s.Scale, s.Orientation)
}
