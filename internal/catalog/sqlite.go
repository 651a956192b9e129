package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const itemsSchema = `
CREATE TABLE IF NOT EXISTS items (
	key TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	price TEXT
);
`

// LoadMetadataSQLite reads every row of the items table.
func LoadMetadataSQLite(ctx context.Context, dbPath string) ([]Item, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database does not exist: %s", dbPath)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT key, name, url, price FROM items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			it    Item
			price sql.NullString
		)
		if err := rows.Scan(&it.Key, &it.Name, &it.URL, &price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if price.Valid {
			// Unparseable stored prices read as absent.
			it.Price, _ = ParsePrice(price.String)
		}
		it.Source = dbPath
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return out, nil
}

// WriteMetadataSQLite upserts items into the items table, creating the
// database and schema when needed. Items without a key use their display name.
func WriteMetadataSQLite(ctx context.Context, dbPath string, items []Item) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, itemsSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO items (key, name, url, price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, it := range items {
		key := it.Key
		if key == "" {
			key = it.DisplayName()
		}
		var price sql.NullString
		if it.Price.Valid() {
			price = sql.NullString{String: it.Price.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, key, it.Name, it.URL, price); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to write item %s: %w", key, err)
		}
	}
	return tx.Commit()
}
