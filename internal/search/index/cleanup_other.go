//go:build !windows

package index

import "os"

// cleanupBackup removes the backup index dir if present.
func cleanupBackup(backupDir string) error {
	if backupDir == "" {
		return nil
	}
	return os.RemoveAll(backupDir)
}
