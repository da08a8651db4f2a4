package core

import "github.com/shopspring/decimal"

// CategoryTotal is the signed sum of one category's transactions.
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}
