package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

func food(amount int64) core.Draft {
	return core.Draft{
		Amount:   decimal.NewFromInt(amount),
		Kind:     core.KindExpense,
		Category: "食費",
		Date:     core.NewDate(2024, 1, 2),
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Insert(ctx, food(100))
	if err != nil || first.ID != "1" {
		t.Fatalf("unexpected insert: %+v err=%v", first, err)
	}
	second, _ := s.Insert(ctx, food(200))
	if second.ID != "2" {
		t.Fatalf("ids must be sequential, got %s", second.ID)
	}

	if err := s.Update(ctx, 1, food(150)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(ctx, 1)
	if err != nil || !got.Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.List(ctx)
	if len(list) != 1 || list[0].ID != "2" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}

	third, _ := s.Insert(ctx, food(300))
	if third.ID != "3" {
		t.Fatalf("deleted ids must not be reused, got %s", third.ID)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Get(ctx, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}
	if err := s.Update(ctx, 9, food(1)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
}

func TestMemoryStoreRejectsInvalidDraft(t *testing.T) {
	d := food(100)
	d.Category = "給与"
	if _, err := New().Insert(context.Background(), d); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestNewFromDirSeeds(t *testing.T) {
	dir := t.TempDir()

	// No file -> empty store
	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store, got %v", list)
	}

	mustWrite := func(content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(content), 0o644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
	}

	mustWrite("# date,type,category,amount\n2024-01-01,income,給与,5000\n\n2024-01-02,expense,食費,2000\n")
	s, err = NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	list, _ := s.List(context.Background())
	if len(list) != 2 || list[0].Kind != core.KindIncome || list[1].Category != "食費" {
		t.Fatalf("unexpected seeded list: %+v", list)
	}

	mustWrite("2024-01-01,income,給与\n")
	if _, err := NewFromDir(dir); err == nil {
		t.Fatal("expected error for malformed seed line")
	}
}
