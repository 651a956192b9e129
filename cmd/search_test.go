package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/config"
	"github.com/kamusis/pricematch/internal/search"
	searchindex "github.com/kamusis/pricematch/internal/search/index"
)

func TestFormatPrice(t *testing.T) {
	if got := formatPrice(catalog.NoPrice()); got != "no price" {
		t.Fatalf("formatPrice(absent) = %q", got)
	}
	if got := formatPrice(catalog.PriceFromInt(12000)); got != "12000" {
		t.Fatalf("formatPrice(12000) = %q", got)
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, []search.RankedResult{
		{Item: catalog.Item{Key: "belt", Name: "Belt", URL: "https://shop.example/belt", Price: catalog.PriceFromInt(9000)}, Similarity: 0.91234, Scored: true, Image: "/cat/belt.png"},
		{Item: catalog.Item{Key: "boots"}},
	})
	out := buf.String()
	for _, want := range []string{
		"Results (2 found):",
		"1.  Belt",
		"9000",
		"[0.912]",
		"link: https://shop.example/belt",
		"photo: /cat/belt.png",
		"2.  boots",
		"no price",
		"link: #",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writeResults(&buf, nil)
	if buf.String() != "Results (0 found):\n" {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := &config.Config{CatalogDir: "/cat", IndexDir: "/idx", ImageExtensions: []string{"PNG"}}
	opts, err := buildOptions(cfg, true)
	if err != nil {
		t.Fatalf("buildOptions: %v", err)
	}
	if opts.CatalogDir != "/cat" || opts.OutDir != "/idx" || !opts.Force || opts.Extensions[0] != ".png" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := buildOptions(&config.Config{}, false); err == nil {
		t.Fatalf("expected error without catalog_dir")
	}
}

func writeTestPNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInitImportSearch_EndToEnd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{"PROVIDER", "MODEL", "BASE_URL", "API_KEY", "RPS"} {
		t.Setenv("PRICEMATCH_EMBEDDINGS_"+k, "")
	}

	photos := filepath.Join(t.TempDir(), "photos")
	writeTestPNG(t, filepath.Join(photos, "red.png"), color.RGBA{R: 220, G: 20, B: 20, A: 255})
	writeTestPNG(t, filepath.Join(photos, "blue.png"), color.RGBA{R: 20, G: 20, B: 220, A: 255})
	writeTestPNG(t, filepath.Join(photos, "pink.png"), color.RGBA{R: 230, G: 120, B: 140, A: 255})

	catalogDir := filepath.Join(home, "shop", "catalog")
	rootCmd.SetArgs([]string{"init", "--catalog", catalogDir, photos})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(catalogDir, "pink.png")); err != nil {
		t.Fatalf("photos not imported: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CatalogDir != catalogDir {
		t.Fatalf("catalog_dir = %s, want %s", cfg.CatalogDir, catalogDir)
	}
	meta := "red:\n  name: Red cap\n  price: \"₩12,000\"\npink:\n  name: Pink cap\n  price: 8000\n"
	if err := os.WriteFile(cfg.MetadataFile, []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"search", filepath.Join(photos, "red.png")})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("search: %v", err)
	}

	indexDir, _ := cfg.EffectiveIndexDir()
	idx, err := searchindex.Load(indexDir)
	if err != nil {
		t.Fatalf("index not built by search: %v", err)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("expected 3 indexed photos, got %d", len(idx.Entries))
	}

	out := filepath.Join(t.TempDir(), "merged.csv")
	lists := t.TempDir()
	if err := os.WriteFile(filepath.Join(lists, "a.txt"), []byte("Red cap\t12,000\nBlue cap 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"prices", lists, "-o", out})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("prices: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "name,price,url,source\nBlue cap,9000,,a.txt\nRed cap,12000,,a.txt\n"
	if string(got) != want {
		t.Fatalf("merged CSV = %q, want %q", got, want)
	}
}
