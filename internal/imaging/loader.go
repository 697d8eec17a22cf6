package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant disk reads.
//
// Entries are keyed by file path and remember the file's modification time and
// size. A Load for a path whose file has changed on disk since it was cached
// decodes the file again, so re-opening a photo that was edited elsewhere never
// returns stale pixels.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(true)
//	src, err := cache.Load("/path/to/photo.jpg")
//	if err != nil {
//	    return err
//	}
type ImageCache struct {
	mu         sync.RWMutex
	autoOrient bool
	images     map[string]cacheEntry
}

type cacheEntry struct {
	src     *SourceImage
	modTime time.Time
	size    int64
}

// NewImageCache creates and initializes a new empty image cache.
//
// When autoOrient is true, EXIF orientation found in JPEG files is applied to
// the pixels at decode time and the resulting SourceImage reports OrientationUp.
func NewImageCache(autoOrient bool) *ImageCache {
	return &ImageCache{
		autoOrient: autoOrient,
		images:     make(map[string]cacheEntry),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Parameters:
//   - path: Absolute or relative file path. Supported formats are PNG, JPEG,
//     GIF, BMP, TIFF and WebP.
//
// Returns:
//   - *SourceImage: The decoded image with scale 1.
//   - error: Non-nil if the file cannot be stat'd, opened or decoded.
//
// Different paths to the same file (e.g., relative vs absolute) result in
// separate cache entries.
func (c *ImageCache) Load(path string) (*SourceImage, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(stat.ModTime()) && entry.size == stat.Size() {
		return entry.src, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	px, err := imaging.Decode(f, imaging.AutoOrientation(c.autoOrient))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	src := NewSourceImage(px, OrientationUp, 1)

	c.mu.Lock()
	c.images[path] = cacheEntry{src: src, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return src, nil
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// FormatFromPath guesses the image format from the file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".tif", ".tiff" -> "tiff"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}

// DecodeConfig reads only the header of an image file and returns its
// dimensions, so callers can reject oversized rasters before decoding them.
func DecodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg, format, nil
}
