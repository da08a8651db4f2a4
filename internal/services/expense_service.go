package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
	"kakeibo/internal/storage"
)

const eventSource = "resource"

// Publisher is satisfied by the AMQP client.
type Publisher interface {
	Publish(ctx context.Context, ev core.Event) error
	Close() error
}

// ExpenseService orchestrates expense writes across the repository and the
// message bus. The repository is the source of truth; publishing is best effort.
type ExpenseService struct {
	storage   storage.ExpenseRepository
	publisher Publisher
	logger    *applog.Logger
}

// NewExpenseService wires a repository and an optional publisher (nil disables events).
func NewExpenseService(repo storage.ExpenseRepository, publisher Publisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExpenseService{
		storage:   repo,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentResource),
	}
}

// CreateExpense validates and saves the draft, then publishes a created event.
func (s *ExpenseService) CreateExpense(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.storage.Insert(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, core.EventCreated, t)
	return t, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.List(ctx)
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.Get(ctx, id)
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, d core.Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.storage.Update(ctx, id, d); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, core.EventUpdated, d.Stored(strconv.FormatInt(id, 10)))
	return nil
}

// DeleteExpense removes the expense and publishes a deleted event carrying
// the record as it was.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	t, err := s.storage.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, core.EventDeleted, t)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, typ core.EventType, t core.Transaction) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", "event", typ)
		return
	}
	if err := s.publisher.Publish(ctx, core.NewEvent(typ, eventSource, t, nil)); err != nil {
		// The write already succeeded.
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			"event", typ,
			applog.FieldTransactionID, t.ID,
			applog.FieldError, err)
	}
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
