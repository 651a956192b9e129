package cmd

import "testing"

func TestFilterWhere_KeepsCommasInValues(t *testing.T) {
	t.Cleanup(func() { flagFilterWhere = nil })
	if err := filterCmd.Flags().Parse([]string{"--where", "design=a,b", "--where", "color=Red"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	preds, err := filterPredicates([]string{"type=sneaker", "color=blue"}, flagFilterWhere)
	if err != nil {
		t.Fatalf("filterPredicates: %v", err)
	}
	want := map[string]string{"design": "a,b", "color": "Red", "type": "sneaker"}
	if len(preds) != len(want) {
		t.Fatalf("got %v, want %v", preds, want)
	}
	for k, v := range want {
		if preds[k] != v {
			t.Fatalf("predicate %s = %q, want %q", k, preds[k], v)
		}
	}
}

func TestFilterPredicates_RejectsBadPair(t *testing.T) {
	if _, err := filterPredicates(nil, []string{"color"}); err == nil {
		t.Fatal("expected error for value without '='")
	}
}
