package search

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/kamusis/pricematch/internal/catalog"
)

// Predicates maps a field name to the text that field must contain.
type Predicates map[string]string

// ParsePredicates parses "field=value" pairs. Repeating a field keeps the last value.
func ParsePredicates(pairs []string) (Predicates, error) {
	out := Predicates{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid predicate %q (want field=value)", p)
		}
		out[k] = v
	}
	return out, nil
}

// active returns the predicates with a non-blank value, field names
// lower-cased and values case-folded, in field order.
func (p Predicates) active(fold cases.Caser) [][2]string {
	var out [][2]string
	for k, v := range p {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, [2]string{strings.ToLower(strings.TrimSpace(k)), fold.String(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Filter returns the items whose fields contain every non-blank predicate
// value, compared under Unicode case folding. An item lacking a predicate's
// field does not match. Input order is kept, and with no non-blank predicate
// the input is returned unchanged.
func Filter(items []catalog.Item, preds Predicates) []catalog.Item {
	fold := cases.Fold()
	active := preds.active(fold)
	if len(active) == 0 {
		return items
	}

	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if matches(it, active, fold) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it catalog.Item, active [][2]string, fold cases.Caser) bool {
	for _, p := range active {
		v, ok := it.Field(p[0])
		if !ok || !strings.Contains(fold.String(v), p[1]) {
			return false
		}
	}
	return true
}
