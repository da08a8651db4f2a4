// Package memory is a process-local ExpenseRepository, optionally seeded
// from a text file.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// SeedFile is looked up inside the data directory by NewFromDir.
const SeedFile = "seed_expenses.txt"

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Draft
	order  []int64
}

func New() *Store {
	return &Store{items: make(map[int64]core.Draft)}
}

// NewFromDir seeds the store from <dir>/seed_expenses.txt when present. Each
// line is "date,type,category,amount"; blanks and # comments are skipped.
func NewFromDir(dir string) (*Store, error) {
	s := New()
	lines := readLines(filepath.Join(dir, SeedFile))
	for i, line := range lines {
		d, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", SeedFile, i+1, err)
		}
		if _, err := s.Insert(context.Background(), d); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", SeedFile, i+1, err)
		}
	}
	return s, nil
}

func (s *Store) Insert(_ context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.items[s.nextID] = d
	s.order = append(s.order, s.nextID)
	return d.Stored(strconv.FormatInt(s.nextID, 10)), nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Stored(strconv.FormatInt(id, 10)))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get expense %d: %w", id, storage.ErrNotFound)
	}
	return d.Stored(strconv.FormatInt(id, 10)), nil
}

func (s *Store) Update(_ context.Context, id int64, d core.Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("update expense %d: %w", id, storage.ErrNotFound)
	}
	s.items[id] = d
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete expense %d: %w", id, storage.ErrNotFound)
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func parseSeedLine(line string) (core.Draft, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return core.Draft{}, fmt.Errorf("want 4 fields, got %d", len(parts))
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Draft{}, err
	}
	kind, err := core.ParseKind(strings.TrimSpace(parts[1]))
	if err != nil {
		return core.Draft{}, err
	}
	amount, err := core.ParseAmount(parts[3])
	if err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Amount:   amount,
		Kind:     kind,
		Category: strings.TrimSpace(parts[2]),
		Date:     date,
	}, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

var _ storage.ExpenseRepository = (*Store)(nil)
