package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// FilePicker hands out ImageSources that read photos from the local filesystem.
//
// Files larger than maxBytes or with more than maxPixels pixels are rejected
// with ErrImageTooLarge before they are decoded. Zero disables a limit.
type FilePicker struct {
	cache     *imaging.ImageCache
	maxBytes  int64
	maxPixels int
	logger    zerolog.Logger
}

// NewFilePicker creates a picker backed by cache.
func NewFilePicker(cache *imaging.ImageCache, maxBytes int64, maxPixels int, logger zerolog.Logger) *FilePicker {
	return &FilePicker{
		cache:     cache,
		maxBytes:  maxBytes,
		maxPixels: maxPixels,
		logger:    logger.With().Str("component", "file_picker").Logger(),
	}
}

// Source returns the ImageSource for path. An empty path is a dismissed picker.
func (p *FilePicker) Source(path string) ImageSource {
	return fileSource{picker: p, path: strings.TrimSpace(path)}
}

type fileSource struct {
	picker *FilePicker
	path   string
}

func (s fileSource) RequestImage(ctx context.Context) (*imaging.SourceImage, error) {
	if s.path == "" {
		s.picker.logger.Info().Msg("image pick cancelled")
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stat, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", s.path)
	}
	if s.picker.maxBytes > 0 && stat.Size() > s.picker.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds limit of %s", ErrImageTooLarge,
			units.HumanSize(float64(stat.Size())), units.HumanSize(float64(s.picker.maxBytes)))
	}

	cfg, format, err := imaging.DecodeConfig(s.path)
	if err != nil {
		return nil, err
	}
	if s.picker.maxPixels > 0 && cfg.Width*cfg.Height > s.picker.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds limit of %d pixels", ErrImageTooLarge,
			cfg.Width, cfg.Height, s.picker.maxPixels)
	}

	src, err := s.picker.cache.Load(s.path)
	if err != nil {
		return nil, err
	}

	s.picker.logger.Info().
		Str("path", s.path).
		Str("format", format).
		Str("size", units.HumanSize(float64(stat.Size()))).
		Stringer("image", src).
		Msg("image picked")
	return src, nil
}
