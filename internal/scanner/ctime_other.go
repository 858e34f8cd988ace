//go:build !linux && !darwin

package scanner

import (
	"os"
	"time"
)

// createdTime falls back to mtime on platforms without a portable
// creation timestamp accessor.
func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
