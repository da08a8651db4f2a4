package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	StatusPending     SyncStatus = "pending"
	StatusConfirmed   SyncStatus = "confirmed"
	StatusUnconfirmed SyncStatus = "unconfirmed"
)

// placeholderPrefix marks ids synthesized before the resource confirms a record.
// Server ids are numeric, so the two never collide.
const placeholderPrefix = "local-"

type (
	// Kind is the direction of a transaction; it carries the sign of the amount.
	Kind string

	// SyncStatus tracks how far a record got with the remote resource.
	SyncStatus string

	// Transaction is one ledger record. Amount is always a positive magnitude.
	Transaction struct {
		ID       string          `json:"id"`
		Token    string          `json:"token,omitempty"` // correlation token assigned at insertion
		Amount   decimal.Decimal `json:"amount"`
		Kind     Kind            `json:"type"`
		Category string          `json:"category"`
		Date     Date            `json:"date"`
		Status   SyncStatus      `json:"status,omitempty"`
	}

	// Draft is a validated creation request coming from the form collaborator.
	Draft struct {
		Amount   decimal.Decimal
		Kind     Kind
		Category string
		Date     Date
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyCategory   = errors.New("empty category")
)

// ParseKind accepts "income" or "expense", case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	switch k {
	case KindIncome, KindExpense:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// Sign applies the kind's direction to a magnitude.
func (k Kind) Sign(amount decimal.Decimal) decimal.Decimal {
	if k == KindExpense {
		return amount.Neg()
	}
	return amount
}

// Signed returns the record's contribution to the running balance.
func (t Transaction) Signed() decimal.Decimal {
	return t.Kind.Sign(t.Amount)
}

// IsPlaceholder reports whether the record still carries a locally synthesized id.
func (t Transaction) IsPlaceholder() bool {
	return strings.HasPrefix(t.ID, placeholderPrefix)
}

// Draft returns the creation request that produces this record.
func (t Transaction) Draft() Draft {
	return Draft{Amount: t.Amount, Kind: t.Kind, Category: t.Category, Date: t.Date}
}

// Equal compares every field; decimal amounts are compared by value.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Token == o.Token &&
		t.Amount.Equal(o.Amount) &&
		t.Kind == o.Kind &&
		t.Category == o.Category &&
		t.Date.Equal(o.Date) &&
		t.Status == o.Status
}

// PlaceholderID derives the local id used while a record waits for confirmation.
func PlaceholderID(token string) string {
	return placeholderPrefix + token
}

// Pending builds the optimistic record inserted before the resource answers.
func (d Draft) Pending(token string) Transaction {
	return Transaction{
		ID:       PlaceholderID(token),
		Token:    token,
		Amount:   d.Amount,
		Kind:     d.Kind,
		Category: d.Category,
		Date:     d.Date,
		Status:   StatusPending,
	}
}

// Stored is the record a repository returns once d is saved under id.
func (d Draft) Stored(id string) Transaction {
	return Transaction{
		ID:       id,
		Amount:   d.Amount,
		Kind:     d.Kind,
		Category: d.Category,
		Date:     d.Date,
	}
}

func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if !d.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if !Categories.Allows(d.Kind, d.Category) {
		return fmt.Errorf("%w: %q is not a %s category", ErrInvalidCategory, d.Category, d.Kind)
	}
	return nil
}
