//go:build windows

package index

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/windows"
)

// cleanupBackup removes the backup index dir if possible.
//
// Virus scanners and the search indexer can hold a handle on a freshly
// written vectors file for a while. Removal is retried for a short period
// and whatever remains is scheduled for deletion at next reboot.
func cleanupBackup(backupDir string) error {
	if backupDir == "" {
		return nil
	}

	var lastErr error
	for i := 0; i < 15; i++ {
		err := os.RemoveAll(backupDir)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}

	// Files first, then dirs deepest first: MoveFileEx only deletes empty dirs.
	var paths []string
	_ = filepath.WalkDir(backupDir, func(p string, d fs.DirEntry, err error) error {
		if err == nil {
			paths = append(paths, p)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	for _, p := range paths {
		u, err := windows.UTF16PtrFromString(p)
		if err != nil {
			return lastErr
		}
		if err := windows.MoveFileEx(u, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
			return lastErr
		}
	}
	return nil
}
