package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PublishNoClobber moves the finished temp file src to dst without ever
// replacing an existing dst. When dst already exists the returned error wraps
// fs.ErrExist and src is left in place for the caller to remove.
func PublishNoClobber(src, dst string) error {
	if err := renameNoReplace(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("publish %s: %w", dst, fs.ErrExist)
		}
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	// Best-effort: persist the new directory entry.
	_ = SyncDir(filepath.Dir(dst))
	return nil
}

// linkPublish hard-links src to dst, which fails atomically when dst exists,
// then drops src. Used where renameat2 is unavailable.
func linkPublish(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		// Filesystems without hard links: check-then-rename, accepting the race.
		if exists, statErr := Exists(dst); statErr != nil {
			return statErr
		} else if exists {
			return fs.ErrExist
		}
		return os.Rename(src, dst)
	}
	return os.Remove(src)
}

// Exists reports whether path names any directory entry, including a
// dangling symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// SyncDir fsyncs a directory so renames inside it survive a crash.
func SyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
