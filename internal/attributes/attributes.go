// Package attributes captures and restores POSIX file metadata: mode,
// ownership, size and the atime/mtime/ctime triple, at nanosecond
// resolution.
package attributes

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/snapsync/snapsync/pkg/models"
)

// WarnSink receives one warning line per recoverable failure. A nil sink
// means failures are hard errors instead (see ApplyTo).
type WarnSink interface {
	WriteLine(string)
}

// FromFileInfo projects a POSIX stat_t out of a FileInfo obtained with
// os.Lstat/os.Stat. It is total: every regular file, directory and
// symlink FileInfo on a unix platform carries a *syscall.Stat_t.
func FromFileInfo(info os.FileInfo) models.Attributes {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		// Non-unix FileInfo.Sys(); fall back to the portable fields only.
		return models.Attributes{
			Mode: uint32(info.Mode()),
			Size: info.Size(),
			Mtime: info.ModTime().Unix(),
			MNsec: int64(info.ModTime().Nanosecond()),
		}
	}
	return models.Attributes{
		Dev:   uint64(st.Dev),
		Ino:   st.Ino,
		Nlink: uint64(st.Nlink),
		Mode:  st.Mode,
		Uid:   st.Uid,
		Gid:   st.Gid,
		Size:  st.Size,
		Atime: int64(st.Atim.Sec),
		ANsec: int64(st.Atim.Nsec),
		Mtime: int64(st.Mtim.Sec),
		MNsec: int64(st.Mtim.Nsec),
		Ctime: int64(st.Ctim.Sec),
		CNsec: int64(st.Ctim.Nsec),
	}
}

// ApplyTo performs chmod, utime, chown in that order against filePath. If
// warn is non-nil, each individual failure is written there and the
// remaining operations are still attempted; if warn is nil, the first
// failure aborts immediately with that error.
func ApplyTo(a models.Attributes, filePath string, warn WarnSink) error {
	if err := os.Chmod(filePath, os.FileMode(a.Mode&0o7777)); err != nil {
		if warn != nil {
			warn.WriteLine(fmt.Sprintf("%s: chmod: %v", filePath, err))
		} else {
			return err
		}
	}

	atime := time.Unix(a.Atime, a.ANsec)
	mtime := time.Unix(a.Mtime, a.MNsec)
	if err := os.Chtimes(filePath, atime, mtime); err != nil {
		if warn != nil {
			warn.WriteLine(fmt.Sprintf("%s: utime: %v", filePath, err))
		} else {
			return err
		}
	}

	if err := os.Chown(filePath, int(a.Uid), int(a.Gid)); err != nil {
		if warn != nil {
			warn.WriteLine(fmt.Sprintf("%s: chown: %v", filePath, err))
		} else {
			return err
		}
	}

	return nil
}
