package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
)

const eventSource = "ledger"

// DefaultRemoteTimeout bounds each call to the remote resource.
const DefaultRemoteTimeout = 10 * time.Second

var ErrNotRetryable = errors.New("transaction is not unconfirmed")

// Remote is the expenses resource as seen by the controller.
type Remote interface {
	Create(ctx context.Context, d core.Draft) (core.Transaction, error)
	Remove(ctx context.Context, id string) error
	FetchAll(ctx context.Context) ([]core.Transaction, error)
}

// EventPublisher receives sync outcomes. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev core.Event) error
}

// View is what the list and chart collaborators render.
type View struct {
	Transactions   []core.Transaction         `json:"transactions"`
	CategoryTotals map[string]decimal.Decimal `json:"categoryTotals"`
	TotalBalance   decimal.Decimal            `json:"totalBalance"`
	NextSort       string                     `json:"nextSort"`
}

// Controller applies user intents optimistically to the Store and keeps it in
// step with the remote resource. Remote calls run in the background; each
// confirmation finds its own placeholder through the correlation token, so
// completions may arrive in any order.
type Controller struct {
	store   *Store
	remote  Remote
	events  EventPublisher
	logger  *applog.Logger
	timeout time.Duration

	sortMu    sync.Mutex
	direction SortDirection

	inflight sync.WaitGroup
}

type Option func(*Controller)

// WithEvents publishes sync outcomes to p.
func WithEvents(p EventPublisher) Option {
	return func(c *Controller) { c.events = p }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Controller) { c.logger = l.WithComponent(applog.ComponentLedger) }
}

// WithRemoteTimeout bounds every remote call; zero keeps the default.
func WithRemoteTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewController(store *Store, remote Remote, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		remote:    remote,
		logger:    applog.Discard(),
		timeout:   DefaultRemoteTimeout,
		direction: Descending,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddTransaction inserts a pending placeholder, returns it, and confirms it
// with the remote resource in the background.
func (c *Controller) AddTransaction(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate draft: %w", err)
	}

	placeholder := d.Pending(uuid.NewString())
	if err := c.store.Insert(placeholder); err != nil {
		return core.Transaction{}, fmt.Errorf("insert placeholder: %w", err)
	}
	c.logger.DebugContext(ctx, "Transaction added optimistically", fields(placeholder).ToSlice()...)

	c.background(ctx, func(ctx context.Context) { c.confirm(ctx, placeholder.Token, d) })
	return placeholder, nil
}

// RemoveTransaction drops the record locally and, for confirmed records,
// deletes it remotely without waiting. A missing id is a no-op reported as
// false. Local removal is never reverted.
func (c *Controller) RemoveTransaction(ctx context.Context, id string) bool {
	removed, ok := c.store.RemoveByID(id)
	if !ok {
		c.logger.DebugContext(ctx, "Remove ignored, transaction not found", applog.FieldTransactionID, id)
		return false
	}

	switch removed.Status {
	case core.StatusPending:
		// No server id yet; the confirmation finds no placeholder and deletes the orphan.
		return true
	case core.StatusUnconfirmed:
		return true
	}

	c.background(ctx, func(ctx context.Context) {
		if err := c.remote.Remove(ctx, removed.ID); err != nil {
			c.logger.LogError(ctx, "Remote delete failed, local removal kept", err, applog.OpDelete, fields(removed))
			c.publish(ctx, core.NewEvent(core.EventRemoveFailed, eventSource, removed, err))
		}
	})
	return true
}

// LoadAll replaces the collection with the remote one and sets the balance
// in the same step. On failure the current state is left untouched.
func (c *Controller) LoadAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.remote.FetchAll(ctx)
	if err != nil {
		c.logger.LogError(ctx, "Initial load failed", err, applog.OpList, nil)
		return fmt.Errorf("fetch transactions: %w", err)
	}
	for i := range records {
		records[i].Status = core.StatusConfirmed
	}
	c.store.Reset(records)

	c.logger.InfoContext(ctx, "Ledger loaded",
		applog.FieldCount, len(records),
		applog.FieldAmount, c.store.Balance().String())
	return nil
}

// RequestSort orders the records by date in the remembered direction, then
// flips the direction for the next request. It returns the direction applied.
func (c *Controller) RequestSort() (SortDirection, error) {
	c.sortMu.Lock()
	defer c.sortMu.Unlock()

	dir := c.direction
	if err := c.store.Reorder(func(cur []core.Transaction) []core.Transaction {
		return SortByDate(cur, dir)
	}); err != nil {
		return dir, fmt.Errorf("sort by date: %w", err)
	}
	c.direction = dir.Toggle()
	return dir, nil
}

// NextSort reports the direction the next RequestSort will apply.
func (c *Controller) NextSort() SortDirection {
	c.sortMu.Lock()
	defer c.sortMu.Unlock()
	return c.direction
}

// Retry re-issues the create call for an unconfirmed record.
func (c *Controller) Retry(ctx context.Context, id string) error {
	t, ok := c.store.Find(id)
	if !ok {
		return fmt.Errorf("retry %s: %w", id, ErrNotFound)
	}
	if t.Status != core.StatusUnconfirmed {
		return fmt.Errorf("retry %s: %w", id, ErrNotRetryable)
	}
	if !c.store.SetStatus(t.Token, core.StatusPending) {
		return fmt.Errorf("retry %s: %w", id, ErrNotFound)
	}
	c.logger.InfoContext(ctx, "Retrying unconfirmed transaction", fields(t).WithOperation(applog.OpRetry).ToSlice()...)

	c.background(ctx, func(ctx context.Context) { c.confirm(ctx, t.Token, t.Draft()) })
	return nil
}

// Snapshot returns the records, their category totals and the balance as
// one consistent view.
func (c *Controller) Snapshot() View {
	records, balance := c.store.Snapshot()
	return View{
		Transactions:   records,
		CategoryTotals: CategoryTotals(records),
		TotalBalance:   balance,
		NextSort:       c.NextSort().String(),
	}
}

// Wait blocks until every background remote call has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) confirm(ctx context.Context, token string, d core.Draft) {
	confirmed, err := c.remote.Create(ctx, d)
	if err != nil {
		if t, ok := c.store.FindToken(token); ok && c.store.SetStatus(token, core.StatusUnconfirmed) {
			t.Status = core.StatusUnconfirmed
			c.logger.LogError(ctx, "Remote create failed, transaction left unconfirmed", err, applog.OpCreate, fields(t))
			c.publish(ctx, core.NewEvent(core.EventCreateFailed, eventSource, t, err))
		}
		return
	}

	confirmed.Token = token
	confirmed.Status = core.StatusConfirmed
	if !c.store.Reconcile(token, confirmed) {
		// Removed locally while the create was in flight.
		if err := c.remote.Remove(ctx, confirmed.ID); err != nil {
			c.logger.LogError(ctx, "Failed to delete orphaned remote transaction", err, applog.OpDelete, fields(confirmed))
			c.publish(ctx, core.NewEvent(core.EventRemoveFailed, eventSource, confirmed, err))
			return
		}
		c.publish(ctx, core.NewEvent(core.EventOrphanRemoved, eventSource, confirmed, nil))
		return
	}

	c.logger.DebugContext(ctx, "Transaction confirmed", fields(confirmed).ToSlice()...)
	c.publish(ctx, core.NewEvent(core.EventConfirmed, eventSource, confirmed, nil))
}

// background runs fn detached from the caller's cancellation, under the
// remote timeout, and tracks it for Wait.
func (c *Controller) background(ctx context.Context, fn func(context.Context)) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (c *Controller) publish(ctx context.Context, ev core.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish ledger event",
			"event", ev.Type,
			applog.FieldError, err)
	}
}

func fields(t core.Transaction) applog.LogFields {
	return applog.NewFields().WithTransaction(t.ID, t.Token, t.Amount.String(), string(t.Kind), t.Category, t.Date.String())
}
