package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// PreviewResult contains an upright, size-limited rendering of an image
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePreview orients src upright, shrinks it to fit maxDimension and encodes it as base64 PNG.
// A maxDimension <= 0 keeps the full size. Images are never enlarged.
func EncodePreview(src *SourceImage, maxDimension int) (*PreviewResult, error) {
	if src == nil || src.Pixels == nil {
		return nil, ErrNoSource
	}

	img := src.Oriented()
	if maxDimension > 0 {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// EncodeJPEG writes the upright image to w as JPEG with the given quality (1-100).
func EncodeJPEG(w io.Writer, src *SourceImage, quality int) error {
	if src == nil || src.Pixels == nil {
		return ErrNoSource
	}
	if quality < 1 || quality > 100 {
		return fmt.Errorf("invalid jpeg quality %d (must be 1-100)", quality)
	}
	if err := imaging.Encode(w, src.Oriented(), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}
