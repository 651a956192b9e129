package search

import (
	"reflect"
	"testing"

	"github.com/kamusis/pricematch/internal/catalog"
)

func keys(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

func resultKeys(rs []RankedResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Item.Key
	}
	return out
}

func TestSortByPrice_AbsentLast(t *testing.T) {
	in := Unscored([]catalog.Item{
		{Key: "A", Price: catalog.PriceFromInt(5000)},
		{Key: "B"},
		{Key: "C", Price: catalog.PriceFromInt(1000)},
	})
	got := SortByPrice(in, 0)
	if want := []string{"C", "A", "B"}; !reflect.DeepEqual(resultKeys(got), want) {
		t.Fatalf("got %v, want %v", resultKeys(got), want)
	}
	if in[0].Item.Key != "A" {
		t.Fatalf("input was modified")
	}
}

func TestSortByPrice_StableAndIdempotent(t *testing.T) {
	in := Unscored([]catalog.Item{
		{Key: "n1"},
		{Key: "p1", Price: catalog.PriceFromInt(300)},
		{Key: "n2"},
		{Key: "p2", Price: catalog.PriceFromInt(100)},
		{Key: "p3", Price: catalog.PriceFromInt(300)},
		{Key: "n3"},
	})
	once := SortByPrice(in, 0)
	if want := []string{"p2", "p1", "p3", "n1", "n2", "n3"}; !reflect.DeepEqual(resultKeys(once), want) {
		t.Fatalf("got %v, want %v", resultKeys(once), want)
	}
	twice := SortByPrice(once, 0)
	if !reflect.DeepEqual(resultKeys(once), resultKeys(twice)) {
		t.Fatalf("not idempotent: %v then %v", resultKeys(once), resultKeys(twice))
	}

	seenAbsent := false
	for _, r := range once {
		if !r.Item.Price.Valid() {
			seenAbsent = true
		} else if seenAbsent {
			t.Fatalf("priced item after absent price: %v", resultKeys(once))
		}
	}
}

func TestSortByPrice_Limit(t *testing.T) {
	in := Unscored([]catalog.Item{
		{Key: "a", Price: catalog.PriceFromInt(3)},
		{Key: "b", Price: catalog.PriceFromInt(1)},
		{Key: "c", Price: catalog.PriceFromInt(2)},
	})
	if got := resultKeys(SortByPrice(in, 2)); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("got %v", got)
	}
	if got := SortByPrice(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestSortItemsByPrice(t *testing.T) {
	in := []catalog.Item{
		{Key: "x"},
		{Key: "y", Price: catalog.PriceFromInt(20)},
		{Key: "z", Price: catalog.PriceFromInt(10)},
	}
	if got := keys(SortItemsByPrice(in, 0)); !reflect.DeepEqual(got, []string{"z", "y", "x"}) {
		t.Fatalf("got %v", got)
	}
}
