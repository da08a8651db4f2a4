package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"

	_ "modernc.org/sqlite"
)

const selectExpense = `SELECT id, amount, type, category, date FROM expenses`

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, d core.Draft) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, type, category, date) VALUES (?, ?, ?, ?)`,
		d.Amount.String(), string(d.Kind), d.Category, d.Date.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read inserted id: %w", err)
	}

	t := d.Stored(strconv.FormatInt(id, 10))

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		applog.NewFields().WithTransaction(t.ID, "", t.Amount.String(), string(t.Kind), t.Category, t.Date.String()).ToSlice()...)
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectExpense+` WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectExpense+` WHERE id = ? AND deleted_at IS NULL`, id)
	t, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get expense %d: %w", id, ErrNotFound)
	}
	return t, err
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, d core.Draft) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, type = ?, category = ?, date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		d.Amount.String(), string(d.Kind), d.Category, d.Date.String(), id)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", id, err)
	}
	if err := expectAffected(res, id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Expense updated", applog.FieldTransactionID, id)
	return nil
}

// Delete soft deletes the row so it disappears from List and Get.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if err := expectAffected(res, id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Expense soft deleted", applog.FieldTransactionID, id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Transaction, error) {
	var (
		id                           int64
		amount, kind, category, date string
	)
	if err := s.Scan(&id, &amount, &kind, &category, &date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan expense: %w", err)
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("expense %d amount %q: %w", id, amount, err)
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("expense %d: %w", id, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("expense %d: %w", id, err)
	}
	return core.Transaction{
		ID:       strconv.FormatInt(id, 10),
		Amount:   amt,
		Kind:     k,
		Category: category,
		Date:     d,
	}, nil
}

func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	return nil
}
