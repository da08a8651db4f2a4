package ledger

import (
	"slices"
	"testing"

	"kakeibo/internal/core"
)

func ids(records []core.Transaction) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSortByDate(t *testing.T) {
	in := []core.Transaction{
		record("a", 1, core.KindIncome, "給与", core.NewDate(2024, 3, 1)),
		record("b", 1, core.KindIncome, "給与", core.NewDate(2024, 1, 15)),
		record("c", 1, core.KindIncome, "給与", core.NewDate(2024, 3, 1)),
		record("d", 1, core.KindIncome, "給与", core.NewDate(2023, 12, 31)),
	}
	before := ids(in)

	desc := SortByDate(in, Descending)
	if got := ids(desc); !slices.Equal(got, []string{"a", "c", "b", "d"}) {
		t.Fatalf("descending: %v", got)
	}
	asc := SortByDate(in, Ascending)
	if got := ids(asc); !slices.Equal(got, []string{"d", "b", "a", "c"}) {
		t.Fatalf("ascending: %v", got)
	}
	if !slices.Equal(ids(in), before) {
		t.Fatalf("input mutated: %v", ids(in))
	}
}

func TestSortDirectionToggle(t *testing.T) {
	if Descending.Toggle() != Ascending || Ascending.Toggle() != Descending {
		t.Fatal("toggle must alternate")
	}
	if d, ok := ParseSortDirection("asc"); !ok || d != Ascending {
		t.Fatalf("parse asc: %v %v", d, ok)
	}
	if _, ok := ParseSortDirection("sideways"); ok {
		t.Fatal("unknown direction accepted")
	}
}
