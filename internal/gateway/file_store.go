package gateway

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// DefaultJPEGQuality matches the 0.6 compression the photo album export used.
const DefaultJPEGQuality = 60

// FileStore persists final images as JPEG files in a directory.
//
// Every save gets a fresh imagetune-<uuid>.jpg name, so earlier exports are
// never overwritten. Files are written to a temporary name first and renamed
// into place, so a failed save never leaves a truncated image behind.
type FileStore struct {
	dir     string
	quality int
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewFileStore creates a store writing into dir. The directory is created on
// the first save.
func NewFileStore(dir string, quality int, clock clockwork.Clock, logger zerolog.Logger) *FileStore {
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	return &FileStore{
		dir:     dir,
		quality: quality,
		clock:   clock,
		logger:  logger.With().Str("component", "file_store").Logger(),
	}
}

// Dir returns the directory images are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save encodes img as an upright JPEG and writes it to the store directory.
func (s *FileStore) Save(ctx context.Context, img *imaging.SourceImage) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	var buf bytes.Buffer
	if err := imaging.EncodeJPEG(&buf, img, s.quality); err != nil {
		return Receipt{}, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Receipt{}, fmt.Errorf("create directory: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("imagetune-%s.jpg", uuid.NewString()))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return Receipt{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Receipt{}, fmt.Errorf("rename temp file: %w", err)
	}

	receipt := Receipt{
		Location: path,
		Bytes:    int64(buf.Len()),
		SavedAt:  s.clock.Now(),
	}
	s.logger.Info().
		Str("path", path).
		Int64("bytes", receipt.Bytes).
		Int("quality", s.quality).
		Msg("image saved")
	return receipt, nil
}
