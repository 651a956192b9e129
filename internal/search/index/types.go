package index

import (
	"fmt"
	"path/filepath"
)

// FormatVersion is the on-disk index layout written by BuildIndex.
const FormatVersion = 1

// Manifest describes an embedding index and how to interpret it.
type Manifest struct {
	IndexVersion int           `json:"index_version"`
	CreatedAt    string        `json:"created_at"`
	ModelID      string        `json:"model_id"`
	Dim          int           `json:"dim"`
	Normalize    bool          `json:"normalize"`
	CatalogDir   string        `json:"catalog_dir"`
	VectorFile   string        `json:"vector_file"`
	EntriesFile  string        `json:"entries_file"`
	Skipped      []SkippedFile `json:"skipped,omitempty"`
}

// Entry represents one catalog image row in entries.jsonl.
type Entry struct {
	Key       string `json:"key"`
	File      string `json:"file"` // name inside the catalog dir
	Size      int64  `json:"size"`
	ModTime   int64  `json:"mod_time"` // unix nanoseconds
	FileHash  string `json:"file_hash"`
	UpdatedAt string `json:"updated_at"`
}

// SkippedFile records a catalog file that produced no vector.
type SkippedFile struct {
	File    string `json:"file"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
	Reason  string `json:"reason"`
}

// Index is a loaded embedding index.
type Index struct {
	Manifest Manifest
	Entries  []Entry
	Vectors  []float32
}

// Vector returns the i-th row of Vectors.
func (idx *Index) Vector(i int) []float32 {
	d := idx.Manifest.Dim
	return idx.Vectors[i*d : (i+1)*d]
}

// Store converts the index into an immutable Store. Each key's source image
// path is resolved against catalogDir, or the manifest's CatalogDir when empty.
func (idx *Index) Store(catalogDir string) (*Store, error) {
	keys := make([]string, len(idx.Entries))
	for i, e := range idx.Entries {
		keys[i] = e.Key
	}
	s, err := NewStore(keys, idx.Vectors, idx.Manifest.Dim)
	if err != nil {
		return nil, fmt.Errorf("invalid index: %w", err)
	}
	if catalogDir == "" {
		catalogDir = idx.Manifest.CatalogDir
	}
	if catalogDir != "" {
		s.sources = make(map[string]string, len(idx.Entries))
		for _, e := range idx.Entries {
			s.sources[e.Key] = filepath.Join(catalogDir, e.File)
		}
	}
	return s, nil
}
