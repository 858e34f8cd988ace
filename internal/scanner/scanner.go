package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// ImageExtensions is the allow-list of indexable image extensions.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
	".ico": true,
}

// ShallowInfo is the cheap per-file metadata produced by a shallow scan.
// No pixel data is read to produce it.
type ShallowInfo struct {
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	CreatedTime time.Time
	Ext         string // lowercase, no dot
}

// Scanner enumerates folders and extracts per-file metadata.
type Scanner struct {
	norm *PathNormalizer
}

// New creates a Scanner that normalizes paths with norm.
func New(norm *PathNormalizer) *Scanner {
	return &Scanner{norm: norm}
}

// Normalizer returns the scanner's path normalizer.
func (s *Scanner) Normalizer() *PathNormalizer {
	return s.norm
}

// IsSupported reports whether path has an indexable image extension.
func IsSupported(path string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanShallow lists the direct children of dir that carry a supported
// image extension, returning filesystem metadata only. Subdirectories
// are not descended into. Results are recomputed fresh on every call
// and carry no ordering guarantee beyond enumeration order.
//
// An entry whose metadata cannot be read is skipped and logged rather
// than failing the scan.
func (s *Scanner) ScanShallow(dir string) ([]ShallowInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []ShallowInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !ImageExtensions[ext] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Warn("skipping unreadable entry %s: %v", entry.Name(), err)
			metrics.ScannerUnreadableEntries.Inc()
			continue
		}

		path := s.norm.Normalize(filepath.Join(dir, entry.Name()))
		files = append(files, ShallowInfo{
			Path:        path,
			Name:        entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			CreatedTime: createdTime(info),
			Ext:         strings.TrimPrefix(ext, "."),
		})
	}

	metrics.ScannerFilesScanned.Add(float64(len(files)))
	return files, nil
}
