package thumbs

import (
	"bytes"
	"crypto/md5" //nolint:gosec // MD5 keys the cache by source path, not security
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// jpegQuality trades thumbnail size against speed; 80 matches what the
// gallery UI can tell apart at thumbnail sizes.
const jpegQuality = 80

// Cache is the derived, content-addressed thumbnail store. Entries are
// JPEG renditions keyed by a hash of the source path plus the requested
// pixel size; freshness is inferred from filesystem state, never from
// the catalog. Losing a cache entry is never data loss.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache dir: %w", err)
	}
	logging.Debug("thumbnail cache dir: %s", dir)
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// EntryPath returns the deterministic cache location for (source, size).
// The same pair always maps to the same file regardless of when it was
// generated.
func (c *Cache) EntryPath(source string, size int) string {
	hash := md5.Sum([]byte(source)) //nolint:gosec
	return filepath.Join(c.dir, fmt.Sprintf("%x_%d.jpg", hash, size))
}

// Ensure returns the path of a fresh thumbnail for source at the given
// pixel size, generating it when missing or stale. A cached rendition
// is reused iff it exists and is at least as new as the source's
// modification time.
//
// The decode/resize/encode step is CPU-bound; callers on
// latency-sensitive paths must run Ensure on a worker.
func (c *Cache) Ensure(source string, size int) (string, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return "", fmt.Errorf("source not accessible: %w", err)
	}

	cachePath := c.EntryPath(source, size)
	if fresh(cachePath, srcInfo.ModTime()) {
		logging.Debug("thumbnail cache hit: %s", source)
		metrics.ThumbnailCacheHits.Inc()
		return cachePath, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check: another caller may have generated it while we waited.
	if fresh(cachePath, srcInfo.ModTime()) {
		metrics.ThumbnailCacheHits.Inc()
		return cachePath, nil
	}

	start := time.Now()
	if err := c.generate(source, cachePath, size); err != nil {
		metrics.ThumbnailErrors.Inc()
		return "", err
	}
	metrics.ThumbnailsGenerated.Inc()
	metrics.ThumbnailDuration.Observe(time.Since(start).Seconds())

	return cachePath, nil
}

// fresh reports whether the cache file exists and is not older than the
// source.
func fresh(cachePath string, sourceModTime time.Time) bool {
	info, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	return !info.ModTime().Before(sourceModTime)
}

func (c *Cache) generate(source, cachePath string, size int) error {
	logging.Debug("generating thumbnail: %s (size %d)", source, size)

	img, err := decodeImage(source, size)
	if err != nil {
		return fmt.Errorf("thumbnail decode failed for %s: %w", source, err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	// Overwrites any stale prior rendition at the same key.
	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail %s: %w", cachePath, err)
	}
	return nil
}

// decodeImage loads the full source image, preferring the libvips fast
// path when initialized, then the imaging loader with auto-orientation,
// then a plain stdlib decode.
func decodeImage(source string, size int) (image.Image, error) {
	if IsVipsAvailable() {
		if img, err := loadImageWithVips(source, size, size); err == nil {
			return img, nil
		} else {
			logging.Debug("vips decode failed for %s: %v, falling back", source, err)
		}
	}

	img, err := imaging.Open(source, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", source, err)

	file, openErr := os.Open(source)
	if openErr != nil {
		return nil, openErr
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s: %v", source, err)
		}
	}()

	img, _, err = image.Decode(file)
	return img, err
}

// Invalidate removes the cache entries for a batch of source paths at
// the given size. Best effort: failures are logged and never returned.
func (c *Cache) Invalidate(paths []string, size int) {
	for _, p := range paths {
		cachePath := c.EntryPath(p, size)
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove thumbnail %s: %v", cachePath, err)
		}
	}
}

// InvalidateAll removes the entire cache directory and recreates it
// empty. Best effort: the cache can always be regenerated from the
// originals.
func (c *Cache) InvalidateAll() {
	if err := os.RemoveAll(c.dir); err != nil {
		logging.Warn("failed to clear thumbnail cache: %v", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		logging.Warn("failed to recreate thumbnail cache dir: %v", err)
	}
}
