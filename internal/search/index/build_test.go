package index

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kamusis/pricematch/internal/embeddings"
)

// countingProvider wraps the pixel provider and counts Embed calls.
type countingProvider struct {
	embeddings.Provider
	calls atomic.Int64
}

func newCountingProvider() *countingProvider {
	return &countingProvider{Provider: embeddings.NewPixel()}
}

func (p *countingProvider) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	p.calls.Add(1)
	return p.Provider.Embed(ctx, img)
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.RGBA{R: 10, G: 200, B: 90, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.RGBA{R: 230, A: 255})
	writePNG(t, filepath.Join(dir, "blue.png"), color.RGBA{B: 230, A: 255})
	writePNG(t, filepath.Join(dir, "grey.png"), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	return dir
}

func TestBuildIndex_SkipsBadFiles(t *testing.T) {
	cat := newCatalog(t)
	if err := os.WriteFile(filepath.Join(cat, "broken.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Same key as red.png; the first file in name order wins.
	writePNG(t, filepath.Join(cat, "red.jpeg"), color.RGBA{G: 255, A: 255})
	if err := os.WriteFile(filepath.Join(cat, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "index")

	res, err := BuildIndex(context.Background(), embeddings.NewPixel(), BuildOptions{
		CatalogDir: cat, OutDir: out, Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if len(res.Index.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", res.Index.Entries)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped files, got %+v", res.Skipped)
	}
	if res.Skipped[0].File != "broken.jpg" || res.Skipped[1].File != "red.png" {
		t.Fatalf("unexpected skipped files: %+v", res.Skipped)
	}

	idx, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := range idx.Entries {
		if n := Norm(idx.Vector(i)); math.Abs(n-1) > 1e-5 {
			t.Fatalf("entry %s has norm %f", idx.Entries[i].Key, n)
		}
	}
	if idx.Entries[0].Key != "blue" || idx.Entries[2].Key != "red" || idx.Entries[2].File != "red.jpeg" {
		t.Fatalf("unexpected entries: %+v", idx.Entries)
	}
}

func TestBuildIndex_SelfQueryRanksFirst(t *testing.T) {
	cat := newCatalog(t)
	prov := embeddings.NewPixel()
	res, err := BuildIndex(context.Background(), prov, BuildOptions{
		CatalogDir: cat, OutDir: t.TempDir(), Logger: quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := res.Index.Store(cat)
	if err != nil {
		t.Fatal(err)
	}

	img, err := embeddings.LoadImage(filepath.Join(cat, "grey.png"))
	if err != nil {
		t.Fatal(err)
	}
	q, err := prov.Embed(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.TopK(NormalizeL2(q), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Key != "grey" || math.Abs(got[0].Score-1) > 1e-5 {
		t.Fatalf("self query = %+v", got)
	}
}

func TestBuildIndex_EmptyCatalog(t *testing.T) {
	out := t.TempDir()
	res, err := BuildIndex(context.Background(), embeddings.NewPixel(), BuildOptions{
		CatalogDir: t.TempDir(), OutDir: out, Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if len(res.Index.Entries) != 0 {
		t.Fatalf("expected empty index")
	}
	idx, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := idx.Store("")
	if err != nil || s.Len() != 0 {
		t.Fatalf("expected empty store, got %v, %v", s, err)
	}
}

func TestBuildIndex_ReusesUnchangedVectors(t *testing.T) {
	cat := newCatalog(t)
	out := filepath.Join(t.TempDir(), "index")
	prov := newCountingProvider()
	opts := BuildOptions{CatalogDir: cat, OutDir: out, Logger: quietLogger()}

	if _, err := BuildIndex(context.Background(), prov, opts); err != nil {
		t.Fatal(err)
	}
	if prov.calls.Load() != 3 {
		t.Fatalf("first build embedded %d images", prov.calls.Load())
	}

	writePNG(t, filepath.Join(cat, "grey.png"), color.RGBA{R: 20, G: 20, B: 20, A: 255})
	res, err := BuildIndex(context.Background(), prov, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reused != 2 || res.Embedded != 1 || prov.calls.Load() != 4 {
		t.Fatalf("reused=%d embedded=%d calls=%d", res.Reused, res.Embedded, prov.calls.Load())
	}

	opts.Force = true
	res, err = BuildIndex(context.Background(), prov, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reused != 0 || res.Embedded != 3 {
		t.Fatalf("forced build reused=%d embedded=%d", res.Reused, res.Embedded)
	}
}

func TestBuildIndex_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildIndex(ctx, embeddings.NewPixel(), BuildOptions{
		CatalogDir: newCatalog(t), OutDir: t.TempDir(), Logger: quietLogger(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInstall_SwapsAndLocks(t *testing.T) {
	cat := newCatalog(t)
	out := filepath.Join(t.TempDir(), "index")
	opts := BuildOptions{CatalogDir: cat, OutDir: out, Logger: quietLogger()}

	res, err := Install(context.Background(), embeddings.NewPixel(), opts)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(res.Index.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Index.Entries))
	}
	if _, err := Load(out); err != nil {
		t.Fatalf("installed index not loadable: %v", err)
	}
	if _, err := os.Stat(out + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("backup dir left behind: %v", err)
	}

	unlock, err := acquireBuildLock(context.Background(), out, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()
	if _, err := acquireBuildLock(context.Background(), out, 0); !errors.Is(err, ErrIndexLocked) {
		t.Fatalf("expected ErrIndexLocked, got %v", err)
	}
}

func TestStaleAndOpen(t *testing.T) {
	cat := newCatalog(t)
	if err := os.WriteFile(filepath.Join(cat, "broken.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "index")
	prov := newCountingProvider()
	opts := BuildOptions{CatalogDir: cat, OutDir: out, Logger: quietLogger()}

	idx, res, err := Open(context.Background(), prov, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if res == nil || len(idx.Entries) != 3 {
		t.Fatalf("expected a fresh build with 3 entries")
	}

	stale, err := Stale(idx, cat, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Fatalf("freshly built index reported stale")
	}

	_, res, err = Open(context.Background(), prov, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("expected the installed index to be reused")
	}

	writePNG(t, filepath.Join(cat, "white.png"), color.RGBA{R: 250, G: 250, B: 250, A: 255})
	if stale, _ := Stale(idx, cat, nil); !stale {
		t.Fatalf("added file not detected")
	}
	idx, res, err = Open(context.Background(), prov, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(idx.Entries) != 4 || res.Reused != 3 {
		t.Fatalf("expected incremental rebuild, got %+v", res)
	}
}

func TestCache_BuildOnce(t *testing.T) {
	cat := newCatalog(t)
	opts := BuildOptions{CatalogDir: cat, OutDir: filepath.Join(t.TempDir(), "index"), Logger: quietLogger()}
	prov := newCountingProvider()
	c := NewCache(StoreLoader(prov, opts))

	s1, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s2, err := c.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 || c.Builds() != 1 || prov.calls.Load() != 3 {
		t.Fatalf("expected one build, got builds=%d calls=%d", c.Builds(), prov.calls.Load())
	}
	if src, ok := s1.Source("red"); !ok || src != filepath.Join(cat, "red.png") {
		t.Fatalf("Source(red) = %q, %v", src, ok)
	}

	c.Invalidate()
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Builds() != 2 || prov.calls.Load() != 3 {
		t.Fatalf("reload after Invalidate should reuse the index: builds=%d calls=%d", c.Builds(), prov.calls.Load())
	}

	if _, err := c.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Builds() != 3 || prov.calls.Load() != 6 {
		t.Fatalf("Rebuild should re-embed: builds=%d calls=%d", c.Builds(), prov.calls.Load())
	}
}

func TestCache_ErrorsNotMemoized(t *testing.T) {
	fail := true
	c := NewCache(func(ctx context.Context, force bool) (*Store, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return NewStore(nil, nil, 0)
	})
	if _, err := c.Get(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	fail = false
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after failure: %v", err)
	}
	if c.Builds() != 1 {
		t.Fatalf("builds = %d", c.Builds())
	}
}

// vanishedEntry is a directory entry whose file disappeared before it was stat'ed.
type vanishedEntry struct{ name string }

func (e vanishedEntry) Name() string               { return e.name }
func (e vanishedEntry) IsDir() bool                { return false }
func (e vanishedEntry) Type() fs.FileMode          { return 0 }
func (e vanishedEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrNotExist }

func TestDiscoverEntries_KeepsUnstatableFiles(t *testing.T) {
	files := discoverEntries([]fs.DirEntry{vanishedEntry{name: "gone.png"}, vanishedEntry{name: "notes.txt"}}, DefaultExtensions)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %+v", files)
	}
	f := files[0]
	if f.Name != "gone.png" || f.Key != "gone" {
		t.Fatalf("unexpected file: %+v", f)
	}
	if !errors.Is(f.Err, fs.ErrNotExist) {
		t.Fatalf("expected stat error, got %v", f.Err)
	}
	if f.Size != 0 || f.ModTime != 0 {
		t.Fatalf("expected zero stamp, got %+v", f)
	}
}
