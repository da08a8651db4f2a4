package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrDuplicateID    = errors.New("duplicate transaction id")
	ErrNotPermutation = errors.New("new order is not a permutation of the current records")
)

// Store holds the ordered records and the running balance. Every mutation
// changes membership and balance inside one critical section, so readers
// never see one without the other.
type Store struct {
	mu      sync.RWMutex
	items   []core.Transaction
	balance decimal.Decimal
}

func NewStore() *Store {
	return &Store{balance: decimal.Zero}
}

// Insert appends t and applies its signed amount to the balance.
func (s *Store) Insert(t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	s.items = append(s.items, t)
	s.adjustBalance(t.Signed())
	return nil
}

// RemoveByID deletes the record with id and reverses its balance contribution.
// The boolean is false when no such record exists.
func (s *Store) RemoveByID(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, false
	}
	removed := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	s.adjustBalance(removed.Signed().Neg())
	return removed, true
}

// ReplaceOrder installs seq as the visible order. seq must hold exactly the
// current records, value for value.
func (s *Store) ReplaceOrder(seq []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceOrderLocked(seq)
}

// Reorder computes a new order from a copy of the current records and
// installs it without letting another mutation slip in between.
func (s *Store) Reorder(fn func([]core.Transaction) []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceOrderLocked(fn(slices.Clone(s.items)))
}

// Reconcile replaces the record carrying token with the confirmed values,
// keeping its position. If the confirmed id is already held by another
// record the placeholder is dropped instead, so ids stay unique. It returns
// false when no record carries token, i.e. it was removed in the meantime.
func (s *Store) Reconcile(token string, confirmed core.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfToken(token)
	if i < 0 {
		return false
	}
	old := s.items[i]
	if j := s.indexOf(confirmed.ID); j >= 0 && j != i {
		s.items = slices.Delete(s.items, i, i+1)
		s.adjustBalance(old.Signed().Neg())
		return true
	}
	s.items[i] = confirmed
	s.adjustBalance(confirmed.Signed().Sub(old.Signed()))
	return true
}

// SetStatus updates the sync status of the record carrying token.
func (s *Store) SetStatus(token string, status core.SyncStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfToken(token)
	if i < 0 {
		return false
	}
	s.items[i].Status = status
	return true
}

// Reset installs a freshly fetched collection with its balance computed in a
// single pass. Pending placeholders survive so their confirmations still
// find them.
func (s *Store) Reset(records []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(records)
	for _, t := range s.items {
		if t.Status == core.StatusPending {
			next = append(next, t)
		}
	}
	s.items = next
	s.balance = Balance(next)
}

// Find returns the record with id.
func (s *Store) Find(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

// FindToken returns the record carrying token.
func (s *Store) FindToken(token string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfToken(token); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

// Transactions returns a copy of the records in visible order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Balance returns the running balance.
func (s *Store) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Snapshot returns records and balance read under the same lock.
func (s *Store) Snapshot() ([]core.Transaction, decimal.Decimal) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.balance
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// adjustBalance must be called with mu held, once per membership change.
func (s *Store) adjustBalance(delta decimal.Decimal) {
	s.balance = s.balance.Add(delta)
}

func (s *Store) replaceOrderLocked(seq []core.Transaction) error {
	if len(seq) != len(s.items) {
		return fmt.Errorf("%w: have %d records, got %d", ErrNotPermutation, len(s.items), len(seq))
	}
	current := make(map[string]core.Transaction, len(s.items))
	for _, t := range s.items {
		current[t.ID] = t
	}
	for _, t := range seq {
		have, ok := current[t.ID]
		if !ok || !have.Equal(t) {
			return fmt.Errorf("%w: unexpected record %s", ErrNotPermutation, t.ID)
		}
		delete(current, t.ID)
	}
	s.items = slices.Clone(seq)
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.ID == id })
}

func (s *Store) indexOfToken(token string) int {
	if token == "" {
		return -1
	}
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.Token == token })
}
