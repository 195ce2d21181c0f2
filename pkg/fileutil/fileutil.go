// Package fileutil implements file utilities.
package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Exist returns true if a file or directory exists.
func Exist(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(name)
	return err == nil
}

// DirStat returns the number of regular files under dir and their total size.
// Symbolic links are not followed.
func DirStat(dir string) (files int, size int64, err error) {
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}

// MkdirParent creates the parent directory of a file path.
func MkdirParent(p string) error {
	return os.MkdirAll(filepath.Dir(p), 0755)
}
