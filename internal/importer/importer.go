// Package importer copies product photos into the catalog dir, applying
// exclude filtering and MD5-based conflict resolution.
package importer

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConflictMarker separates the key from the source label in conflict file names.
const ConflictMarker = ".conflict-"

// ConflictPair records a conflict found during import.
type ConflictPair struct {
	Original string // path of the photo already in the catalog
	Conflict string // path where the incoming differing photo was stored
	Label    string // source label
}

// Result is returned by ImportImages.
type Result struct {
	Conflicts   []ConflictPair
	Imported    int // photos actually copied, conflicts included
	Skipped     int // identical duplicates skipped
	Unsupported int // files ignored for their extension
}

// Options controls which files ImportImages picks up.
type Options struct {
	Extensions []string // lower-case, with leading dot
	Excludes   []string // glob patterns matched against base name and relative path
}

// ImportImages copies every supported image under srcDir, recursively, into
// the flat catalog dir dstDir. An existing photo with the same name and
// content is skipped; one with different content is kept and the incoming
// photo is stored beside it as <key>.conflict-<label><ext>.
func ImportImages(srcDir, dstDir, label string, opts Options) (*Result, error) {
	result := &Result{}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return result, err
	}

	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == srcDir {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if matchesExclude(rel, opts.Excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !supported(d.Name(), opts.Extensions) || strings.Contains(d.Name(), ConflictMarker) {
			result.Unsupported++
			return nil
		}

		dst := filepath.Join(dstDir, d.Name())
		if _, err := os.Stat(dst); err == nil {
			srcMD5, err := fileMD5(path)
			if err != nil {
				return fmt.Errorf("md5 %s: %w", path, err)
			}
			dstMD5, err := fileMD5(dst)
			if err != nil {
				return fmt.Errorf("md5 %s: %w", dst, err)
			}
			if srcMD5 == dstMD5 {
				result.Skipped++
				return nil
			}
			conflictDst := conflictPath(dst, label)
			if err := copyFile(path, conflictDst); err != nil {
				return fmt.Errorf("conflict copy %s → %s: %w", path, conflictDst, err)
			}
			result.Conflicts = append(result.Conflicts, ConflictPair{
				Original: dst,
				Conflict: conflictDst,
				Label:    label,
			})
			result.Imported++
			return nil
		}

		if err := copyFile(path, dst); err != nil {
			return fmt.Errorf("copy %s → %s: %w", path, dst, err)
		}
		result.Imported++
		return nil
	})
	return result, err
}

// FindConflicts lists the conflict copies left in the catalog dir, by name.
func FindConflicts(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, de := range des {
		if !de.IsDir() && strings.Contains(de.Name(), ConflictMarker) {
			out = append(out, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// conflictPath inserts .conflict-<label> before the final extension.
//
//	bag.jpg  → bag.conflict-spring.jpg
func conflictPath(original, label string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return base + ConflictMarker + label + ext
}

func supported(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// matchesExclude reports whether relPath matches any of the given glob patterns.
func matchesExclude(relPath string, patterns []string) bool {
	name := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}

// fileMD5 returns the hex-encoded MD5 digest of the file at path.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// copyFile copies src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
