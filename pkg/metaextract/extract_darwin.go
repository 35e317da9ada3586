//go:build darwin

package metaextract

import (
	"os"
	"syscall"
	"time"
)

// populatePlatformAttrs fills in uid/gid/inode/creation-time from the
// platform-specific stat_t, available on Darwin via syscall.Stat_t.
func populatePlatformAttrs(info os.FileInfo, rec *Record) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	rec.Attributes.UID = stat.Uid
	rec.Attributes.GID = stat.Gid
	rec.Inode = stat.Ino
	rec.FSCreatedAt = time.Unix(stat.Ctimespec.Sec, stat.Ctimespec.Nsec)
}
