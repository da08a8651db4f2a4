package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
)

func TestHandleEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewEventWorker(applog.NewWithWriter(&buf, slog.LevelInfo, applog.ComponentAMQP))
	ctx := context.Background()

	tx := core.Transaction{
		ID:       "7",
		Amount:   decimal.NewFromInt(2000),
		Kind:     core.KindExpense,
		Category: "食費",
		Date:     core.NewDate(2024, 1, 2),
	}
	events := []core.Event{
		core.NewEvent(core.EventCreated, "resource", tx, nil),
		core.NewEvent(core.EventConfirmed, "ledger", tx, nil),
		core.NewEvent(core.EventRemoveFailed, "ledger", tx, errors.New("connection refused")),
		core.NewEvent(core.EventCreated, "resource", tx, nil),
	}
	for _, ev := range events {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent(%s): %v", ev.Type, err)
		}
	}

	s := w.Stats()
	if s.Counts[core.EventCreated] != 2 || s.Counts[core.EventConfirmed] != 1 || s.Failed != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "connection refused") {
		t.Errorf("failure not logged as warning:\n%s", out)
	}
	if strings.Count(out, "Ledger event") != 3 {
		t.Errorf("expected 3 info lines:\n%s", out)
	}
}

func TestStatsIsACopy(t *testing.T) {
	w := NewEventWorker(nil)
	_ = w.HandleEvent(context.Background(), core.Event{Type: core.EventDeleted})

	s := w.Stats()
	s.Counts[core.EventDeleted] = 42
	if w.Stats().Counts[core.EventDeleted] != 1 {
		t.Fatal("Stats exposed internal counters")
	}
}
