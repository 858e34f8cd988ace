//go:build darwin

package scanner

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the file's birth time as reported by the kernel.
// Falls back to mtime when the stat payload is not available.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return info.ModTime()
}
