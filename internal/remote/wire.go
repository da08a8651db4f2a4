package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// createRequest is the POST body. The amount stays a positive magnitude;
// type carries the direction.
type createRequest struct {
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	Type     string      `json:"type"`
}

func newCreateRequest(d core.Draft) createRequest {
	return createRequest{
		Amount:   json.Number(d.Amount.String()),
		Category: d.Category,
		Date:     d.Date.String(),
		Type:     string(d.Kind),
	}
}

// expenseRecord is one resource record as returned by POST and GET.
type expenseRecord struct {
	ExpenseID expenseID       `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
}

// expenseID accepts the id as a JSON number or string.
type expenseID string

func (id *expenseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return errors.New("expense_id is null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = expenseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expense_id: %w", err)
	}
	*id = expenseID(n.String())
	return nil
}

// transaction maps the record into the local shape with ID = expense_id.
// Rows written with a pre-negated amount are folded back to their magnitude.
func (r expenseRecord) transaction() (core.Transaction, error) {
	if r.ExpenseID == "" {
		return core.Transaction{}, errors.New("missing expense_id")
	}
	kind, err := core.ParseKind(r.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:       string(r.ExpenseID),
		Amount:   r.Amount.Abs(),
		Kind:     kind,
		Category: r.Category,
		Date:     date,
	}, nil
}
