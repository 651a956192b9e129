package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Price is an optional money value. The zero value is an absent price,
// which means "unknown", never zero.
type Price struct {
	value decimal.Decimal
	valid bool
}

// NoPrice returns an absent price.
func NoPrice() Price { return Price{} }

// NewPrice returns a present price.
func NewPrice(d decimal.Decimal) Price { return Price{value: d, valid: true} }

// PriceFromInt returns a present price holding v.
func PriceFromInt(v int64) Price { return NewPrice(decimal.NewFromInt(v)) }

// Valid reports whether the price is present.
func (p Price) Valid() bool { return p.valid }

// Decimal returns the value and whether it is present.
func (p Price) Decimal() (decimal.Decimal, bool) { return p.value, p.valid }

// String renders the price, or "" when absent.
func (p Price) String() string {
	if !p.valid {
		return ""
	}
	return p.value.String()
}

// Compare orders prices ascending with absent prices after every present one.
// Two absent prices compare equal.
func (p Price) Compare(q Price) int {
	switch {
	case !p.valid && !q.valid:
		return 0
	case !p.valid:
		return 1
	case !q.valid:
		return -1
	}
	return p.value.Cmp(q.value)
}

// Equal reports whether both prices are absent or hold the same value.
func (p Price) Equal(q Price) bool {
	if p.valid != q.valid {
		return false
	}
	return !p.valid || p.value.Equal(q.value)
}

var currencyMarks = []string{"KRW", "USD", "EUR", "₩", "원", "$", "€", "£", "¥"}

// ParsePrice parses a price as it appears in hand-written price lists:
// currency marks and thousands separators are tolerated. Blank input is an
// absent price without error; anything else non-numeric is an error.
func ParsePrice(s string) (Price, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return NoPrice(), nil
	}
	for _, m := range currencyMarks {
		t = strings.ReplaceAll(t, m, "")
	}
	t = strings.NewReplacer(",", "", "_", "", " ", "").Replace(t)
	if t == "" {
		return NoPrice(), fmt.Errorf("invalid price %q", s)
	}
	d, err := decimal.NewFromString(t)
	if err != nil {
		return NoPrice(), fmt.Errorf("invalid price %q", s)
	}
	return NewPrice(d), nil
}

// MarshalJSON encodes an absent price as null and a present one as a number.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return []byte(p.value.String()), nil
}

// UnmarshalJSON accepts null, a number or a string.
func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = NoPrice()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
	v, err := ParsePrice(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalYAML accepts null, a number or a string.
func (p *Price) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		*p = NoPrice()
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: price must be a scalar", n.Line)
		}
		return nil
	}
	v, err := ParsePrice(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*p = v
	return nil
}

// MarshalYAML encodes an absent price as null.
func (p Price) MarshalYAML() (any, error) {
	if !p.valid {
		return nil, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: p.value.String()}, nil
}
