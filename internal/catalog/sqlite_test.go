package catalog

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteMetadata_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "catalog.db")

	items := []Item{
		{Key: "lamp", Name: "Desk lamp", URL: "https://shop.example/lamp", Price: PriceFromInt(25000)},
		{Name: "Chair", Price: NoPrice()},
	}
	if err := WriteMetadataSQLite(ctx, dbPath, items); err != nil {
		t.Fatalf("WriteMetadataSQLite: %v", err)
	}
	// Writing again upserts instead of duplicating.
	if err := WriteMetadataSQLite(ctx, dbPath, items[:1]); err != nil {
		t.Fatalf("WriteMetadataSQLite (again): %v", err)
	}

	m, err := LoadMetadata(ctx, dbPath)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", m.Len())
	}
	lamp := m.Lookup("lamp")
	if lamp.Name != "Desk lamp" || lamp.Price.String() != "25000" {
		t.Fatalf("unexpected lamp: %+v", lamp)
	}
	chair := m.Lookup("Chair")
	if chair.Price.Valid() || chair.URL != "#" {
		t.Fatalf("unexpected chair: %+v", chair)
	}
}

func TestLoadMetadataSQLite_MissingDB(t *testing.T) {
	if _, err := LoadMetadataSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}
