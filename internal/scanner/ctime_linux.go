//go:build linux

package scanner

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the inode change time, the closest thing Linux
// exposes to a creation timestamp. Falls back to mtime when the stat
// payload is not available.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
