package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Warning describes a record that was read with degraded data or skipped.
type Warning struct {
	Source string
	Line   int
	Msg    string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.Source, w.Line, w.Msg)
	}
	return fmt.Sprintf("%s: %s", w.Source, w.Msg)
}

// ReadCatalogCSV parses a tabular catalog with a header row. Recognized
// columns are key, name, url (or link) and price; every other column becomes
// an attribute under its lower-cased header name. Rows without a key column
// use name as key, then "row-N". A malformed price keeps the row with an
// absent price and records a warning.
func ReadCatalogCSV(r io.Reader, source string) ([]Item, []Warning, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Item{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read CSV header %s: %w", source, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var (
		items    []Item
		warnings []Warning
		row      int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				warnings = append(warnings, Warning{Source: source, Line: pe.StartLine, Msg: pe.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("cannot read CSV %s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		if isBlankRecord(rec) {
			continue
		}

		it := Item{Source: source}
		for i, v := range rec {
			if i >= len(cols) || cols[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			switch cols[i] {
			case "key":
				it.Key = v
			case "name":
				it.Name = v
			case "url", "link":
				if it.URL == "" {
					it.URL = v
				}
			case "price":
				p, err := ParsePrice(v)
				if err != nil {
					warnings = append(warnings, Warning{Source: source, Line: line, Msg: err.Error() + "; treated as no price"})
				}
				it.Price = p
			default:
				if it.Attributes == nil {
					it.Attributes = make(map[string]string)
				}
				it.Attributes[cols[i]] = v
			}
		}
		if it.Key == "" {
			it.Key = it.Name
		}
		if it.Key == "" {
			it.Key = "row-" + strconv.Itoa(row)
		}
		items = append(items, it)
	}
	if items == nil {
		items = []Item{}
	}
	return items, warnings, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// OpenCatalog reads a CSV catalog from an http(s) URL or a local path.
func OpenCatalog(ctx context.Context, client *http.Client, source string) ([]Item, []Warning, error) {
	if source == "" {
		return nil, nil, fmt.Errorf("catalog source is not configured")
	}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open catalog %s: %w", source, err)
		}
		defer f.Close()
		return ReadCatalogCSV(f, source)
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot fetch catalog %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, nil, fmt.Errorf("catalog request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ReadCatalogCSV(io.LimitReader(resp.Body, 64<<20), source)
}

// WriteCSV writes items as name,price,url,source rows with a header.
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "price", "url", "source"}); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write([]string{it.DisplayName(), it.Price.String(), it.URL, it.Source}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
