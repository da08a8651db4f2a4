package storage

import (
	"context"
	"errors"

	"kakeibo/internal/core"
)

var ErrNotFound = errors.New("expense not found")

// ExpenseRepository is the persistence port behind the /expenses/ resource.
// Records come back confirmed, with ID set to the stored expense id.
type ExpenseRepository interface {
	Insert(ctx context.Context, d core.Draft) (core.Transaction, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Update(ctx context.Context, id int64, d core.Draft) error
	Delete(ctx context.Context, id int64) error
	Close() error
}
