package search

import (
	"context"
	"fmt"
	"image"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/embeddings"
	"github.com/kamusis/pricematch/internal/search/index"
)

// Retriever answers queries against one embedding store and its metadata.
type Retriever struct {
	Store    *index.Store
	Metadata *catalog.Metadata
	// TopK is the number of nearest neighbours kept; <= 0 means index.DefaultTopK.
	TopK int
	// MaxResults truncates the price-sorted output when > 0.
	MaxResults int
}

// Similar returns the TopK catalog items closest to query, joined with their
// metadata and ordered by ascending price.
func (r *Retriever) Similar(query []float32) ([]RankedResult, error) {
	if index.Norm(query) == 0 {
		return nil, index.ErrZeroVector
	}
	matches, err := r.Store.TopK(index.NormalizeL2(query), r.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]RankedResult, len(matches))
	for i, m := range matches {
		img, _ := r.Store.Source(m.Key)
		results[i] = RankedResult{
			Item:       r.Metadata.Lookup(m.Key),
			Similarity: m.Score,
			Scored:     true,
			Image:      img,
		}
	}
	return SortByPrice(results, r.MaxResults), nil
}

// SimilarImage embeds img with prov and returns Similar for it.
func (r *Retriever) SimilarImage(ctx context.Context, prov embeddings.Provider, img image.Image) ([]RankedResult, error) {
	q, err := prov.Embed(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("cannot embed query image: %w", err)
	}
	if d := r.Store.Dim(); r.Store.Len() > 0 && len(q) != d {
		return nil, fmt.Errorf("%w: provider %s returned %d dims, index has %d",
			index.ErrDimMismatch, prov.ModelID(), len(q), d)
	}
	return r.Similar(q)
}

// FilterCatalog keeps the items matching preds and orders them by ascending
// price, truncated to limit when > 0. limit 0 falls back to MaxResults.
func (r *Retriever) FilterCatalog(items []catalog.Item, preds Predicates, limit int) []RankedResult {
	if limit == 0 {
		limit = r.MaxResults
	}
	return Unscored(SortItemsByPrice(Filter(items, preds), limit))
}
