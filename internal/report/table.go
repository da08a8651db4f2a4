// Package report renders the ledger for terminals and images.
package report

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// WriteTable prints records in their current order with a balance footer.
func WriteTable(w io.Writer, records []core.Transaction, balance decimal.Decimal) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Date", "Type", "Category", "Amount", "Status"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, t := range records {
		status := string(t.Status)
		if status == "" {
			status = string(core.StatusConfirmed)
		}
		table.Append([]string{
			t.ID,
			t.Date.String(),
			string(t.Kind),
			t.Category,
			t.Signed().String(),
			status,
		})
	}

	table.SetFooter([]string{"", "", "", "Balance", balance.String(), ""})
	table.Render()
}

// WriteCategoryTable prints one row per category with its signed total.
func WriteCategoryTable(w io.Writer, totals []core.CategoryTotal) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Total"})
	for _, ct := range totals {
		table.Append([]string{ct.Name, ct.Amount.String()})
	}
	table.Render()
}
