package search

import (
	"sort"

	"github.com/kamusis/pricematch/internal/catalog"
)

// SortByPrice returns a copy of results ordered by ascending price. Results
// without a price go last; equal prices keep their input order. limit > 0
// truncates the output.
func SortByPrice(results []RankedResult, limit int) []RankedResult {
	out := make([]RankedResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Item.Price.Compare(out[j].Item.Price) < 0
	})
	return truncate(out, limit)
}

// SortItemsByPrice is SortByPrice for bare catalog items.
func SortItemsByPrice(items []catalog.Item, limit int) []catalog.Item {
	out := make([]catalog.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price.Compare(out[j].Price) < 0
	})
	return truncate(out, limit)
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
