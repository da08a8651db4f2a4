package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// Balance sums the signed amounts: income counts positive, expense negative.
func Balance(records []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range records {
		total = total.Add(t.Signed())
	}
	return total
}

// CategoryTotals sums signed amounts per category. Categories with no
// records are absent. Combined, the totals equal Balance(records).
func CategoryTotals(records []core.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range records {
		sum, ok := totals[t.Category]
		if !ok {
			sum = decimal.Zero
		}
		totals[t.Category] = sum.Add(t.Signed())
	}
	return totals
}

// SortedCategoryTotals returns CategoryTotals ordered by category name.
func SortedCategoryTotals(records []core.Transaction) []core.CategoryTotal {
	totals := CategoryTotals(records)
	out := make([]core.CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryTotal{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryTotal) int { return strings.Compare(a.Name, b.Name) })
	return out
}
