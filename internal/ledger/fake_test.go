package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// fakeRemote assigns sequential ids in completion order. A create whose
// category has a gate blocks until the gate is closed.
type fakeRemote struct {
	mu        sync.Mutex
	nextID    int
	createErr error
	removeErr error
	fetchErr  error
	fetched   []core.Transaction
	gates     map[string]chan struct{}
	removed   []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{gates: map[string]chan struct{}{}}
}

func (f *fakeRemote) gate(category string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[category] = ch
	return ch
}

func (f *fakeRemote) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	f.mu.Lock()
	gate := f.gates[d.Category]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return core.Transaction{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	f.nextID++
	return core.Transaction{
		ID:       strconv.Itoa(f.nextID),
		Amount:   d.Amount,
		Kind:     d.Kind,
		Category: d.Category,
		Date:     d.Date,
	}, nil
}

func (f *fakeRemote) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRemote) FetchAll(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]core.Transaction(nil), f.fetched...), nil
}

func (f *fakeRemote) setCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *fakeRemote) removedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []core.Event
}

func (f *fakeEvents) Publish(_ context.Context, ev core.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) types() []core.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

var errUnavailable = errors.New("resource unavailable")

func draft(amount int64, kind core.Kind, category string, date core.Date) core.Draft {
	return core.Draft{Amount: decimal.NewFromInt(amount), Kind: kind, Category: category, Date: date}
}

func record(id string, amount int64, kind core.Kind, category string, date core.Date) core.Transaction {
	return core.Transaction{ID: id, Amount: decimal.NewFromInt(amount), Kind: kind, Category: category, Date: date, Status: core.StatusConfirmed}
}

func mustEqual(t *testing.T, what string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s: got %s, want %d", what, got, want)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
