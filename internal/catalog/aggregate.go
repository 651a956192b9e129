package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PriceFileExtensions lists the file types AggregateDir reads.
var PriceFileExtensions = []string{".csv", ".txt"}

// AggregateDir reads every price file directly inside dir, in file name
// order, and returns their records in read order. Lines that cannot be
// priced are kept with an absent price and reported as warnings; a single
// bad line never aborts the run.
func AggregateDir(dir string) ([]Item, []Warning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read price folder %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range PriceFileExtensions {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)

	var (
		items    []Item
		warnings []Warning
	)
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			warnings = append(warnings, Warning{Source: name, Msg: fmt.Sprintf("cannot open: %v", err)})
			continue
		}
		var (
			got  []Item
			warn []Warning
		)
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			got, warn, err = ReadPriceCSV(f, name)
		} else {
			got, warn, err = ReadPriceText(f, name)
		}
		_ = f.Close()
		if err != nil {
			warnings = append(warnings, Warning{Source: name, Msg: err.Error()})
			continue
		}
		items = append(items, got...)
		warnings = append(warnings, warn...)
	}
	if items == nil {
		items = []Item{}
	}
	return items, warnings, nil
}

// ReadPriceCSV reads price records from CSV. When the first row names a
// price column it is a header (name, price, url/link recognized); otherwise
// rows are positional: name,price[,url].
func ReadPriceCSV(r io.Reader, source string) ([]Item, []Warning, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		items    []Item
		warnings []Warning
		first    = true
		nameCol  = 0
		priceCol = 1
		urlCol   = 2
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				warnings = append(warnings, Warning{Source: source, Line: pe.StartLine, Msg: pe.Err.Error()})
				first = false
				continue
			}
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if cols, ok := priceHeader(rec); ok {
				nameCol, priceCol, urlCol = cols[0], cols[1], cols[2]
				continue
			}
		}
		if isBlankRecord(rec) {
			continue
		}

		name := strings.TrimSpace(field(rec, nameCol))
		if name == "" {
			warnings = append(warnings, Warning{Source: source, Line: line, Msg: "missing name; skipped"})
			continue
		}
		it := Item{Key: name, Name: name, URL: strings.TrimSpace(field(rec, urlCol)), Source: source}
		p, err := ParsePrice(field(rec, priceCol))
		switch {
		case err != nil:
			warnings = append(warnings, Warning{Source: source, Line: line, Msg: err.Error() + "; treated as no price"})
		case !p.Valid():
			warnings = append(warnings, Warning{Source: source, Line: line, Msg: "missing price"})
		}
		it.Price = p
		items = append(items, it)
	}
	return items, warnings, nil
}

// priceHeader returns the name, price and url column indexes when rec is a
// header row. Missing columns are -1.
func priceHeader(rec []string) ([3]int, bool) {
	cols := [3]int{-1, -1, -1}
	for i, h := range rec {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "name", "product", "item":
			cols[0] = i
		case "price":
			cols[1] = i
		case "url", "link":
			cols[2] = i
		}
	}
	if cols[1] < 0 {
		return cols, false
	}
	if cols[0] < 0 {
		cols[0] = 0
	}
	return cols, true
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// ReadPriceText reads one "name price" record per line. Name and price are
// separated by a tab, or else the price is the trailing number of the line,
// optionally wrapped in currency marks and grouped with commas or spaces.
// Blank lines and lines starting with '#' are ignored.
func ReadPriceText(r io.Reader, source string) ([]Item, []Warning, error) {
	var (
		items    []Item
		warnings []Warning
		line     int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		name, price, err := splitPriceLine(text)
		name = strings.TrimSpace(name)
		if name == "" {
			warnings = append(warnings, Warning{Source: source, Line: line, Msg: "missing name; skipped"})
			continue
		}
		if err != nil {
			warnings = append(warnings, Warning{Source: source, Line: line, Msg: err.Error() + "; treated as no price"})
		}
		items = append(items, Item{Key: name, Name: name, Price: price, Source: source})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", source, err)
	}
	return items, warnings, nil
}

func splitPriceLine(text string) (string, Price, error) {
	if i := strings.IndexByte(text, '\t'); i >= 0 {
		p, err := ParsePrice(text[i+1:])
		if err == nil && !p.Valid() {
			err = fmt.Errorf("missing price")
		}
		return trimName(text[:i]), p, err
	}

	t := trimCurrency(text)
	start := priceStart(t)
	if start == len(t) {
		return trimName(text), NoPrice(), fmt.Errorf("no price found")
	}
	name := trimCurrency(t[:start])
	if start > 0 && name == strings.TrimSpace(t[:start]) && !isNameBoundary(t[start-1]) {
		return trimName(text), NoPrice(), fmt.Errorf("no price found")
	}
	p, err := ParsePrice(t[start:])
	if err != nil {
		return trimName(name), NoPrice(), err
	}
	return trimName(name), p, nil
}

// priceStart returns the index where the trailing number of t begins, or
// len(t) when t does not end in a digit. Commas and single spaces are
// accepted as thousands separators only between a digit and a group of
// exactly three digits.
func priceStart(t string) int {
	start := len(t)
	group := 0
	for i := len(t) - 1; i >= 0; i-- {
		c := t[i]
		switch {
		case isDigit(c):
			group++
			start = i
		case c == '.' && start == i+1:
			group = 0
			start = i
		case (c == ',' || c == ' ') && group == 3 && start == i+1 && i > 0 && isDigit(t[i-1]):
			group = 0
		default:
			return trimDot(t, start)
		}
	}
	return trimDot(t, start)
}

// trimDot rejects a trailing run made only of dots.
func trimDot(t string, start int) int {
	if strings.Trim(t[start:], ".") == "" {
		return len(t)
	}
	return start
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isNameBoundary reports whether c may precede a price: whitespace or a comma.
func isNameBoundary(c byte) bool { return c == ' ' || c == ',' }

// trimCurrency strips trailing currency marks and surrounding whitespace.
func trimCurrency(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := false
		for _, m := range currencyMarks {
			if strings.HasSuffix(s, m) {
				s = strings.TrimSpace(strings.TrimSuffix(s, m))
				trimmed = true
			}
		}
		if !trimmed {
			return s
		}
	}
}

func trimName(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ","))
}
