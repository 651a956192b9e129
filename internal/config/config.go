package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTopK is the number of visually similar candidates considered per query.
const DefaultTopK = 10

// Config is the in-memory representation of ~/.pricematch/config.yaml.
type Config struct {
	CatalogDir      string   `yaml:"catalog_dir"`
	MetadataFile    string   `yaml:"metadata_file,omitempty"`
	IndexDir        string   `yaml:"index_dir,omitempty"`
	TopK            int      `yaml:"top_k,omitempty"`
	MaxResults      int      `yaml:"max_results,omitempty"`
	ImageExtensions []string `yaml:"image_extensions,omitempty"`
	Excludes        []string `yaml:"excludes,omitempty"`
	FilterSource    string   `yaml:"filter_source,omitempty"`
}

// HomeDir returns the absolute path to ~/.pricematch/.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".pricematch"), nil
}

// ConfigPath returns the absolute path to ~/.pricematch/config.yaml.
func ConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first pricematch init.
func DefaultConfig() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CatalogDir:      filepath.Join(dir, "catalog"),
		MetadataFile:    filepath.Join(dir, "metadata.yaml"),
		IndexDir:        filepath.Join(dir, "index"),
		TopK:            DefaultTopK,
		ImageExtensions: []string{".png", ".jpg", ".jpeg"},
		Excludes: []string{
			".DS_Store",
			"Thumbs.db",
			"*.tmp",
			"*.bak",
			"*~",
		},
	}, nil
}

// EffectiveIndexDir returns IndexDir, defaulting to ~/.pricematch/index.
func (c *Config) EffectiveIndexDir() (string, error) {
	if c.IndexDir != "" {
		return c.IndexDir, nil
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index"), nil
}

// EffectiveTopK returns TopK, defaulting to DefaultTopK.
func (c *Config) EffectiveTopK() int {
	if c.TopK > 0 {
		return c.TopK
	}
	return DefaultTopK
}

// EffectiveImageExtensions returns the lower-cased image extensions with a
// leading dot, defaulting to .png, .jpg and .jpeg.
func (c *Config) EffectiveImageExtensions() []string {
	if len(c.ImageExtensions) == 0 {
		return []string{".png", ".jpg", ".jpeg"}
	}
	out := make([]string, 0, len(c.ImageExtensions))
	for _, e := range c.ImageExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// Parse decodes YAML config data and expands ~ in path fields.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	for _, p := range []*string{&cfg.CatalogDir, &cfg.MetadataFile, &cfg.IndexDir, &cfg.FilterSource} {
		v, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = v
	}
	return &cfg, nil
}

// Load reads and parses ~/.pricematch/config.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.pricematch/config.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
