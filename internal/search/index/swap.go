package index

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicSwap replaces destDir with srcDir by renaming. The previous index is
// kept as destDir+".bak" until the new one is in place.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	if err := cleanupBackup(backup); err != nil {
		return fmt.Errorf("cannot remove stale backup %s: %w", backup, err)
	}
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = cleanupBackup(backup)
	return nil
}
