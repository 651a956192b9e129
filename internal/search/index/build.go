package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamusis/pricematch/internal/embeddings"
)

// DefaultExtensions are the catalog image types indexed when none are configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// BuildOptions controls index building.
type BuildOptions struct {
	CatalogDir string
	OutDir     string
	// ReuseDir holds a previous index whose vectors may be reused for
	// unchanged files. Defaults to OutDir.
	ReuseDir   string
	Extensions []string
	Force      bool
	Logger     *slog.Logger
}

func (o BuildOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o BuildOptions) extensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

// BuildResult summarizes an index build.
type BuildResult struct {
	Index    *Index
	Embedded int
	Reused   int
	Skipped  []SkippedFile
}

// CatalogFile is one candidate image found in the catalog dir. Err is set
// when the file could not be stat'ed; Size and ModTime are then zero.
type CatalogFile struct {
	Name    string
	Key     string
	Size    int64
	ModTime int64
	Err     error
}

// DiscoverImages lists the images directly inside dir whose extension is in
// exts, in file name order. Hidden files and import conflict copies are ignored.
func DiscoverImages(dir string, exts []string) ([]CatalogFile, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog dir %s: %w", dir, err)
	}
	return discoverEntries(des, exts), nil
}

func discoverEntries(des []fs.DirEntry, exts []string) []CatalogFile {
	var out []CatalogFile
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || strings.Contains(name, ".conflict-") {
			continue
		}
		ext := filepath.Ext(name)
		if !hasExt(exts, ext) {
			continue
		}
		f := CatalogFile{Name: name, Key: strings.TrimSuffix(name, ext)}
		if info, err := de.Info(); err != nil {
			f.Err = fmt.Errorf("cannot stat: %w", err)
		} else {
			f.Size, f.ModTime = info.Size(), info.ModTime().UnixNano()
		}
		out = append(out, f)
	}
	return out
}

func hasExt(exts []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// BuildIndex embeds every image in opts.CatalogDir and writes the index to opts.OutDir.
//
// Files that cannot be read, decoded or embedded are skipped with a warning
// and listed in the result; they never fail the build. The build reuses
// vectors from a previous index with the same model for files whose content
// hash is unchanged, unless Force is true. Vectors are stored L2-normalized.
// It is the caller's responsibility to apply an atomic swap strategy.
func BuildIndex(ctx context.Context, prov embeddings.Provider, opts BuildOptions) (*BuildResult, error) {
	if opts.CatalogDir == "" {
		return nil, fmt.Errorf("catalog dir is required")
	}
	if opts.OutDir == "" {
		return nil, fmt.Errorf("out dir is required")
	}
	log := opts.logger()

	files, err := DiscoverImages(opts.CatalogDir, opts.extensions())
	if err != nil {
		return nil, err
	}

	reuseDir := opts.ReuseDir
	if reuseDir == "" {
		reuseDir = opts.OutDir
	}
	reuse := map[string]int{}
	old, _ := Load(reuseDir)
	if old != nil && !opts.Force && old.Manifest.ModelID == prov.ModelID() {
		for i, e := range old.Entries {
			reuse[e.Key] = i
		}
	}

	res := &BuildResult{}
	skip := func(f CatalogFile, reason string) {
		log.Warn("skipping catalog image", "file", f.Name, "reason", reason)
		res.Skipped = append(res.Skipped, SkippedFile{File: f.Name, Size: f.Size, ModTime: f.ModTime, Reason: reason})
	}

	var (
		entries []Entry
		vectors []float32
		dim     int
		seen    = map[string]string{}
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Err != nil {
			skip(f, f.Err.Error())
			continue
		}
		if prev, dup := seen[f.Key]; dup {
			skip(f, fmt.Sprintf("duplicate key %q (already indexed from %s)", f.Key, prev))
			continue
		}

		path := filepath.Join(opts.CatalogDir, f.Name)
		h, err := fileHash(path)
		if err != nil {
			skip(f, err.Error())
			continue
		}

		if i, ok := reuse[f.Key]; ok && old.Entries[i].FileHash == h {
			v := make([]float32, old.Manifest.Dim)
			copy(v, old.Vector(i))
			if dim == 0 {
				dim = len(v)
			}
			if len(v) == dim {
				prev := old.Entries[i]
				prev.File, prev.Size, prev.ModTime = f.Name, f.Size, f.ModTime
				entries = append(entries, prev)
				vectors = append(vectors, v...)
				seen[f.Key] = f.Name
				res.Reused++
				continue
			}
		}

		img, err := embeddings.LoadImage(path)
		if err != nil {
			skip(f, err.Error())
			continue
		}
		emb, err := prov.Embed(ctx, img)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
				return nil, err
			}
			skip(f, err.Error())
			continue
		}
		if Norm(emb) == 0 {
			skip(f, ErrZeroVector.Error())
			continue
		}
		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			return nil, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(emb), dim)
		}

		entries = append(entries, Entry{
			Key:       f.Key,
			File:      f.Name,
			Size:      f.Size,
			ModTime:   f.ModTime,
			FileHash:  h,
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		})
		vectors = append(vectors, NormalizeL2(emb)...)
		seen[f.Key] = f.Name
		res.Embedded++
	}

	if dim == 0 {
		dim = prov.Dim()
	}
	catalogDir, err := filepath.Abs(opts.CatalogDir)
	if err != nil {
		catalogDir = opts.CatalogDir
	}
	manifest := Manifest{
		IndexVersion: FormatVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ModelID:      prov.ModelID(),
		Dim:          dim,
		Normalize:    true,
		CatalogDir:   catalogDir,
		VectorFile:   defaultVectorFile,
		EntriesFile:  defaultEntriesFile,
		Skipped:      res.Skipped,
	}
	if err := Write(opts.OutDir, manifest, entries, vectors); err != nil {
		return nil, err
	}

	res.Index = &Index{Manifest: manifest, Entries: entries, Vectors: vectors}
	log.Info("catalog index built", "entries", len(entries), "embedded", res.Embedded, "reused", res.Reused, "skipped", len(res.Skipped))
	return res, nil
}

// fileHash returns the hex sha256 of the file at path.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
