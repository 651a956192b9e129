package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Write writes index artifacts to dir. An index without entries is valid.
func Write(dir string, manifest Manifest, entries []Entry, vectors []float32) error {
	if manifest.Dim < 0 || (manifest.Dim == 0 && len(entries) > 0) {
		return fmt.Errorf("invalid dim: %d", manifest.Dim)
	}
	if len(vectors) != len(entries)*manifest.Dim {
		return fmt.Errorf("%w: got %d want %d", ErrVectorLengthMismatch, len(vectors), len(entries)*manifest.Dim)
	}
	if manifest.VectorFile == "" {
		manifest.VectorFile = defaultVectorFile
	}
	if manifest.EntriesFile == "" {
		manifest.EntriesFile = defaultEntriesFile
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	if err := writeEntries(filepath.Join(dir, manifest.EntriesFile), entries); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if len(vectors) > 0 {
		if err := binary.Write(vf, binary.LittleEndian, vectors); err != nil {
			_ = vf.Close()
			return fmt.Errorf("cannot write vectors: %w", err)
		}
	}
	return vf.Close()
}

func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create entries file: %w", err)
	}
	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, e := range entries {
		// Encode appends the newline that delimits JSONL rows.
		if err := enc.Encode(e); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
