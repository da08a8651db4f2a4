package worker

import (
	"context"
	"sync"
	"time"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
)

// EventWorker handles ledger and resource events from the message bus. It
// logs every event and keeps per-type counts for periodic summaries.
type EventWorker struct {
	logger *applog.Logger

	mu     sync.Mutex
	counts map[core.EventType]int
	failed int
}

// Stats is a snapshot of the events seen so far.
type Stats struct {
	Counts map[core.EventType]int
	// Failed counts sync failures reported by ledgers.
	Failed int
}

func NewEventWorker(logger *applog.Logger) *EventWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &EventWorker{
		logger: logger.WithComponent(applog.ComponentAMQP),
		counts: make(map[core.EventType]int),
	}
}

// HandleEvent records ev. Sync failures are logged as warnings since the
// affected record needs a retry or a manual check on the resource.
func (w *EventWorker) HandleEvent(ctx context.Context, ev core.Event) error {
	w.mu.Lock()
	w.counts[ev.Type]++
	failure := ev.Type == core.EventCreateFailed || ev.Type == core.EventRemoveFailed
	if failure {
		w.failed++
	}
	w.mu.Unlock()

	t := ev.Transaction
	fields := applog.NewFields().WithTransaction(t.ID, t.Token, t.Amount.String(), string(t.Kind), t.Category, t.Date.String())
	fields["event"] = string(ev.Type)
	fields["source"] = ev.Source

	if failure {
		fields[applog.FieldError] = ev.Error
		w.logger.WarnContext(ctx, "Ledger sync failure reported", fields.ToSlice()...)
		return nil
	}
	w.logger.InfoContext(ctx, "Ledger event", fields.ToSlice()...)
	return nil
}

func (w *EventWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	counts := make(map[core.EventType]int, len(w.counts))
	for k, v := range w.counts {
		counts[k] = v
	}
	return Stats{Counts: counts, Failed: w.failed}
}

// RunSummaries logs the counters every interval until ctx is done.
func (w *EventWorker) RunSummaries(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.Stats()
			args := []any{"failed", s.Failed}
			for typ, n := range s.Counts {
				args = append(args, string(typ), n)
			}
			w.logger.InfoContext(ctx, "Event summary", args...)
		}
	}
}
