// Package search ranks catalog items for a query: by visual similarity
// against the embedding store, by attribute predicates, and by price.
package search

import "github.com/kamusis/pricematch/internal/catalog"

// RankedResult is one catalog item returned by a query.
type RankedResult struct {
	Item catalog.Item
	// Similarity is the dot product with the query; meaningful only when Scored.
	Similarity float64
	Scored     bool
	Image      string // catalog photo path, when known
}

// Unscored wraps items as results without a similarity score.
func Unscored(items []catalog.Item) []RankedResult {
	out := make([]RankedResult, len(items))
	for i, it := range items {
		out[i] = RankedResult{Item: it}
	}
	return out
}
