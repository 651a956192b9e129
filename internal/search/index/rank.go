package index

import (
	"fmt"
	"sort"
)

// DefaultTopK is used when TopK is called with k <= 0.
const DefaultTopK = 10

// Match is one scored store entry.
type Match struct {
	Key   string
	Score float64
}

// TopK scores every stored vector against query by dot product and returns
// the k best, highest score first. Equal scores keep store order. The result
// has min(k, Len()) entries; an empty store yields an empty result.
func (s *Store) TopK(query []float32, k int) ([]Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if s.Len() == 0 {
		return []Match{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimMismatch, len(query), s.dim)
	}

	scores := make([]Match, len(s.keys))
	for i, key := range s.keys {
		score, err := Dot(query, s.row(i))
		if err != nil {
			return nil, err
		}
		scores[i] = Match{Key: key, Score: score}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}
