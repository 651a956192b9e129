package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is an immutable key -> item mapping. Lookups never fail.
type Metadata struct {
	items map[string]Item
}

// NewMetadata copies items into a new store. The map key wins over Item.Key.
func NewMetadata(items map[string]Item) *Metadata {
	m := &Metadata{items: make(map[string]Item, len(items))}
	for k, it := range items {
		it.Key = k
		m.items[k] = it
	}
	return m
}

// MetadataFromItems indexes items by Key. Later duplicates replace earlier ones.
func MetadataFromItems(items []Item) *Metadata {
	m := &Metadata{items: make(map[string]Item, len(items))}
	for _, it := range items {
		if it.Key == "" {
			continue
		}
		m.items[it.Key] = it
	}
	return m
}

// Len returns the number of records.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Items returns every record with defaults applied, ordered by key.
func (m *Metadata) Items() []Item {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = m.Lookup(k)
	}
	return out
}

// Lookup returns the record for key. Unknown keys, and empty name or url
// fields, fall back to name=key and url="#"; a missing price stays absent.
func (m *Metadata) Lookup(key string) Item {
	var it Item
	if m != nil {
		it = m.items[key]
	}
	it.Key = key
	if it.Name == "" {
		it.Name = key
	}
	if it.URL == "" {
		it.URL = PlaceholderURL
	}
	return it
}

// metadataEntry is the per-key shape of YAML and JSON metadata files.
type metadataEntry struct {
	Name  string `yaml:"name" json:"name"`
	URL   string `yaml:"url" json:"url"`
	Link  string `yaml:"link" json:"link"`
	Price Price  `yaml:"price" json:"price"`
}

func (e metadataEntry) item(key, source string) Item {
	url := e.URL
	if url == "" {
		url = e.Link
	}
	return Item{Key: key, Name: e.Name, URL: url, Price: e.Price, Source: source}
}

// LoadMetadata reads a metadata file, picking the format from its extension:
// .yaml/.yml, .json, .csv, or .db/.sqlite/.sqlite3. A file that does not
// exist yields an empty store.
func LoadMetadata(ctx context.Context, path string) (*Metadata, error) {
	if path == "" {
		return NewMetadata(nil), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewMetadata(nil), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadMetadataYAML(path)
	case ".json":
		return loadMetadataJSON(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open metadata %s: %w", path, err)
		}
		defer f.Close()
		items, _, err := ReadCatalogCSV(f, path)
		if err != nil {
			return nil, err
		}
		return MetadataFromItems(items), nil
	case ".db", ".sqlite", ".sqlite3":
		items, err := LoadMetadataSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return MetadataFromItems(items), nil
	default:
		return nil, fmt.Errorf("unsupported metadata format: %s", path)
	}
}

func loadMetadataYAML(path string) (*Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read metadata %s: %w", path, err)
	}
	var raw map[string]metadataEntry
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return fromEntries(raw, path), nil
}

func loadMetadataJSON(path string) (*Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read metadata %s: %w", path, err)
	}
	var raw map[string]metadataEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON %s: %w", path, err)
	}
	return fromEntries(raw, path), nil
}

func fromEntries(raw map[string]metadataEntry, source string) *Metadata {
	items := make(map[string]Item, len(raw))
	for k, e := range raw {
		items[k] = e.item(k, source)
	}
	return NewMetadata(items)
}
