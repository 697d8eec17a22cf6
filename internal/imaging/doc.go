// Package imaging provides the saturation adjustment engine and the raster helpers
// around it.
//
// The central type is SourceImage: a decoded raster plus its orientation and scale
// metadata. SourceImages are treated as immutable; Engine.Apply always allocates a
// new raster, which is what lets the edit session recompute every preview from the
// same untouched baseline instead of from a previous preview.
//
// # Saturation Models
//
// Two colour models are available:
//   - ModelLuma (default): each pixel is interpolated between its Rec. 709 luma
//     grey and its own colour, out = luma + (c - luma) * factor. Factor 1.0 is an
//     exact no-op on 8-bit input.
//   - ModelHCL: chroma is scaled in the perceptual HCL space and the result is
//     clamped back into sRGB. Factor 1.0 is a no-op within rounding.
//
// Factors range from 0.0 (grayscale) through 1.0 (unchanged) to 2.0 (double
// saturation).
//
// # Orientation
//
// Orientation values follow the EXIF numbering. Pixels are stored as captured and
// Oriented() produces an upright copy for previews and saved output.
//
// # Thread Safety
//
// Engine and ImageCache are safe for concurrent use. SourceImages are read-only
// and can be shared freely between goroutines.
//
// # Error Handling
//
// Engine.Apply reports ErrNoSource when called without an image and wraps
// ErrTransformUnavailable when the transform cannot produce output. Use
// errors.Is to test for either.
package imaging
