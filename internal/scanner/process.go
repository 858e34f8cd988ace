package scanner

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"

	"github.com/google/uuid"

	// Header decoders for the dimension probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ProcessFile produces a full catalog record for a single file,
// including best-effort image dimensions and a freshly minted
// identifier. Unsupported extensions return (nil, nil).
//
// Dimension probing reads only the image header, never the pixel data.
// A probe failure (corrupt file, exotic codec variant) is non-fatal: the
// record is returned with zero dimensions, since the file is still
// indexable as metadata.
func (s *Scanner) ProcessFile(path string) (*catalog.FileRecord, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !ImageExtensions[ext] {
		return nil, nil
	}

	norm := s.norm.Normalize(path)

	info, err := os.Stat(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", norm, err)
	}

	rec := &catalog.FileRecord{
		ID:          uuid.NewString(),
		Name:        filepath.Base(norm),
		Path:        norm,
		FileType:    strings.TrimPrefix(ext, "."),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		CreatedTime: createdTime(info),
	}

	if width, height, err := probeDimensions(norm); err != nil {
		logging.Debug("dimension probe failed for %s: %v", norm, err)
		metrics.ScannerDimensionProbeFailures.Inc()
	} else {
		rec.Width = width
		rec.Height = height
	}

	return rec, nil
}

// probeDimensions decodes only the image header to obtain pixel
// dimensions.
func probeDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
