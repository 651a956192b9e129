// Package catalog holds the product records that search results are joined
// with: prices, display names, links and free-form attributes, plus the
// readers and writers for the formats those records arrive in.
package catalog

import "strings"

// PlaceholderURL is the link shown for items without one.
const PlaceholderURL = "#"

// Item is one catalog record.
type Item struct {
	Key        string
	Name       string
	URL        string
	Price      Price
	Attributes map[string]string // lower-case field name -> value
	Source     string            // file or URL the record was read from
}

// Field returns the value of a named text field. key, name and url are
// built-in; every other name is looked up in Attributes. Names are
// case-insensitive.
func (it Item) Field(name string) (string, bool) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "key":
		return it.Key, it.Key != ""
	case "name":
		return it.Name, it.Name != ""
	case "url", "link":
		return it.URL, it.URL != ""
	default:
		v, ok := it.Attributes[f]
		return v, ok
	}
}

// DisplayName returns Name, falling back to Key.
func (it Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return it.Key
}
