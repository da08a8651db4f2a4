// Package resource serves the /expenses/ REST resource the ledger syncs with.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
	"kakeibo/internal/storage"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

const (
	msgNotFound       = "支出が見つかりません。"
	msgUpdateNotFound = "更新対象が見つかりません。"
	msgDeleteNotFound = "削除対象が見つかりません。"
	msgUpdated        = "支出が正常に更新されました。"
	msgDeleted        = "支出が正常に削除されました。"
)

// ExpenseService is the write/read surface the handlers need.
type ExpenseService interface {
	CreateExpense(ctx context.Context, d core.Draft) (core.Transaction, error)
	ListExpenses(ctx context.Context) ([]core.Transaction, error)
	GetExpense(ctx context.Context, id int64) (core.Transaction, error)
	UpdateExpense(ctx context.Context, id int64, d core.Draft) error
	DeleteExpense(ctx context.Context, id int64) error
}

type Handler struct {
	svc    ExpenseService
	logger *applog.Logger
}

// NewHandler routes /expenses/ and /expenses/{id} onto svc.
func NewHandler(svc ExpenseService, logger *applog.Logger) http.Handler {
	if logger == nil {
		logger = applog.Discard()
	}
	h := &Handler{svc: svc, logger: logger.WithComponent(applog.ComponentResource)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /expenses/{$}", h.handleCreate)
	mux.HandleFunc("GET /expenses/{$}", h.handleList)
	mux.HandleFunc("GET /expenses/{id}", h.handleGet)
	mux.HandleFunc("PUT /expenses/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /expenses/{id}", h.handleDelete)
	// Clients that drop the trailing slash.
	mux.HandleFunc("POST /expenses", h.handleCreate)
	mux.HandleFunc("GET /expenses", h.handleList)
	return mux
}

// expenseBody is the create/update payload.
type expenseBody struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Type     string          `json:"type"`
}

// expenseRecord is the wire shape of a stored expense.
type expenseRecord struct {
	ExpenseID int64       `json:"expense_id"`
	Amount    json.Number `json:"amount"`
	Date      string      `json:"date"`
	Type      string      `json:"type"`
	Category  string      `json:"category"`
}

func newExpenseRecord(t core.Transaction) (expenseRecord, error) {
	id, err := strconv.ParseInt(t.ID, 10, 64)
	if err != nil {
		return expenseRecord{}, fmt.Errorf("expense id %q: %w", t.ID, err)
	}
	return expenseRecord{
		ExpenseID: id,
		Amount:    json.Number(t.Amount.String()),
		Date:      t.Date.String(),
		Type:      string(t.Kind),
		Category:  t.Category,
	}, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, err := h.svc.CreateExpense(r.Context(), d)
	if err != nil {
		if isValidation(err) {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.LogError(r.Context(), "Create expense failed", err, applog.OpCreate, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	rec, err := newExpenseRecord(t)
	if err != nil {
		h.logger.LogError(r.Context(), "Encode created expense failed", err, applog.OpCreate, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.InfoContext(r.Context(), "Expense created",
		applog.FieldTransactionID, rec.ExpenseID,
		applog.FieldCategory, rec.Category)
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListExpenses(r.Context())
	if err != nil {
		h.logger.LogError(r.Context(), "List expenses failed", err, applog.OpList, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]expenseRecord, 0, len(list))
	for _, t := range list {
		rec, err := newExpenseRecord(t)
		if err != nil {
			h.logger.LogError(r.Context(), "Encode expense failed", err, applog.OpList, nil)
			writeDetail(w, http.StatusInternalServerError, "internal error")
			return
		}
		out = append(out, rec)
	}
	h.logger.DebugContext(r.Context(), "Expenses listed", applog.FieldCount, len(out))
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.GetExpense(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.logger.LogError(r.Context(), "Get expense failed", err, applog.OpRead, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	rec, err := newExpenseRecord(t)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := decodeDraft(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err = h.svc.UpdateExpense(r.Context(), id, d)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, msgUpdateNotFound)
	case isValidation(err):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.logger.LogError(r.Context(), "Update expense failed", err, applog.OpUpdate, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": msgUpdated})
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.svc.DeleteExpense(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, msgDeleteNotFound)
	case err != nil:
		h.logger.LogError(r.Context(), "Delete expense failed", err, applog.OpDelete, nil)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": msgDeleted})
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (core.Draft, error) {
	var body expenseBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return core.Draft{}, fmt.Errorf("invalid body: %w", err)
	}
	kind, err := core.ParseKind(body.Type)
	if err != nil {
		return core.Draft{}, err
	}
	date, err := core.ParseDate(body.Date)
	if err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Amount:   body.Amount,
		Kind:     kind,
		Category: strings.TrimSpace(body.Category),
		Date:     date,
	}, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid expense id %q", raw))
		return 0, false
	}
	return id, true
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrEmptyDate)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
