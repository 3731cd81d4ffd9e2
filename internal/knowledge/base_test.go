package knowledge

import (
	"testing"
)

func TestSearch_RanksTopicMatchesFirst(t *testing.T) {
	base := NewSeededBase()

	results := base.Search("shipping delivery time", 3)
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].ID != "kb-shipping" {
		t.Errorf("top result = %q, want kb-shipping", results[0].ID)
	}
}

func TestSearch_RefundQuery(t *testing.T) {
	base := NewSeededBase()

	results := base.Search("refund to my payment method", 3)
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].ID != "kb-refunds" {
		t.Errorf("top result = %q, want kb-refunds", results[0].ID)
	}
}

func TestSearch_Limit(t *testing.T) {
	base := NewBase([]Article{
		{ID: "a", Title: "widgets one", Body: "widgets"},
		{ID: "b", Title: "widgets two", Body: "widgets"},
		{ID: "c", Title: "widgets three", Body: "widgets"},
	})

	if got := len(base.Search("widgets", 2)); got != 2 {
		t.Errorf("len = %d, want limit of 2", got)
	}
	// Zero limit falls back to the default of 3.
	if got := len(base.Search("widgets", 0)); got != 3 {
		t.Errorf("len = %d, want default limit of 3", got)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	base := NewSeededBase()
	if results := base.Search("zxqvw", 3); len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

func TestSearch_StopWordsOnly(t *testing.T) {
	base := NewSeededBase()
	if results := base.Search("what is the", 3); len(results) != 0 {
		t.Errorf("results = %v, want none for a stop-word-only query", results)
	}
}

func TestReplace(t *testing.T) {
	base := NewSeededBase()
	before := base.Len()

	base.Replace([]Article{{ID: "only", Title: "Only article", Body: "gadgets"}})
	if base.Len() != 1 {
		t.Fatalf("Len = %d after Replace, want 1 (was %d)", base.Len(), before)
	}
	if results := base.Search("gadgets", 3); len(results) != 1 || results[0].ID != "only" {
		t.Errorf("search after Replace = %v", results)
	}
	if results := base.Search("shipping", 3); len(results) != 0 {
		t.Error("old articles still searchable after Replace")
	}
}
