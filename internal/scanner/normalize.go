package scanner

import (
	"path/filepath"
	"runtime"
	"strings"
)

// PathNormalizer applies the catalog's path identity policy: absolute,
// cleaned, symlinks resolved where possible, and case-folded when the
// underlying filesystem is treated as case-insensitive.
//
// Case folding changes catalog identity semantics, so it is an explicit
// configured policy rather than a hidden platform conditional. Every
// path is normalized before comparison or storage; the same physical
// file is never represented twice.
type PathNormalizer struct {
	foldCase bool
}

// NewPathNormalizer creates a normalizer. foldCase should be true on
// case-insensitive filesystems.
func NewPathNormalizer(foldCase bool) *PathNormalizer {
	return &PathNormalizer{foldCase: foldCase}
}

// DefaultFoldCase returns the conventional case-folding policy for the
// current platform.
func DefaultFoldCase() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Normalize canonicalizes path. Symlink resolution is best effort: a
// path that does not (yet) exist is still cleaned and folded, so
// watcher remove events normalize consistently with scans.
func (n *PathNormalizer) Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if n.foldCase {
		abs = strings.ToLower(abs)
	}
	return abs
}

// FoldsCase reports whether the normalizer lowercases paths.
func (n *PathNormalizer) FoldsCase() bool {
	return n.foldCase
}
