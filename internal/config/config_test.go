package config

import (
	"path/filepath"
	"testing"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := withHome(t)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.MaxResults = 5
	cfg.FilterSource = "https://shop.example/catalog.csv"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CatalogDir != filepath.Join(dir, "catalog") {
		t.Fatalf("unexpected catalog dir: %q", got.CatalogDir)
	}
	if got.MaxResults != 5 || got.EffectiveTopK() != DefaultTopK {
		t.Fatalf("unexpected limits: %+v", got)
	}
	if got.FilterSource != cfg.FilterSource {
		t.Fatalf("unexpected filter source: %q", got.FilterSource)
	}
}

func TestParse_ExpandsHomeAndNormalizesExtensions(t *testing.T) {
	withHome(t)

	cfg, err := Parse([]byte("catalog_dir: ~/shop/images\nimage_extensions: [PNG, .JPG, \"\", webp]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if filepath.Base(filepath.Dir(cfg.CatalogDir)) != "shop" || cfg.CatalogDir[0] == '~' {
		t.Fatalf("~ not expanded: %q", cfg.CatalogDir)
	}
	exts := cfg.EffectiveImageExtensions()
	want := []string{".png", ".jpg", ".webp"}
	if len(exts) != len(want) {
		t.Fatalf("unexpected extensions: %v", exts)
	}
	for i := range want {
		if exts[i] != want[i] {
			t.Fatalf("unexpected extensions: %v", exts)
		}
	}

	idx, err := cfg.EffectiveIndexDir()
	if err != nil || filepath.Base(idx) != "index" {
		t.Fatalf("unexpected index dir %q (%v)", idx, err)
	}
}

func TestLoad_MissingConfig(t *testing.T) {
	withHome(t)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when config is missing")
	}
}
