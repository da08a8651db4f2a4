package ledger

import (
	"slices"

	"kakeibo/internal/core"
)

const (
	Descending SortDirection = iota
	Ascending
)

// SortDirection is the order applied by the next sort request.
type SortDirection int

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d SortDirection) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseSortDirection accepts "asc" or "desc".
func ParseSortDirection(s string) (SortDirection, bool) {
	switch s {
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	default:
		return Descending, false
	}
}

// SortByDate returns a new slice ordered by calendar date. Records on the
// same date keep their relative order. The input is not modified.
func SortByDate(records []core.Transaction, dir SortDirection) []core.Transaction {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if dir == Descending {
			return b.Date.Compare(a.Date)
		}
		return a.Date.Compare(b.Date)
	})
	return out
}
