//go:build windows

package metaextract

import "os"

// populatePlatformAttrs is a no-op on Windows: uid/gid/inode have no direct
// equivalent, and os.FileInfo does not expose a creation time portably.
func populatePlatformAttrs(info os.FileInfo, rec *Record) {
	rec.FSCreatedAt = rec.FSModifiedAt
}
