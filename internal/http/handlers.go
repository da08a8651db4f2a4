package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/report"
)

type errorBody struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields,omitempty"`
}

type sortBody struct {
	Applied string `json:"applied"`
	ledger.View
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories)
}

// handleAdd returns 202: the record is in the ledger but the resource has
// not confirmed it yet.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "リクエストの形式が不正です"})
		return
	}

	d, err := ParseDraft(p)
	if err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "入力内容を確認してください", Fields: fe})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	t, err := s.ledger.AddTransaction(r.Context(), d)
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Add transaction failed", err, applog.OpCreate, nil)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, t)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.RemoveTransaction(r.Context(), r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "取引が見つかりません"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	err := s.ledger.Retry(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "取引が見つかりません"})
	case errors.Is(err, ledger.ErrNotRetryable):
		writeJSON(w, http.StatusConflict, errorBody{Error: "未確定の取引のみ再送できます"})
	default:
		applog.FromContext(r.Context()).LogError(r.Context(), "Retry failed", err, applog.OpRetry, nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	dir, err := s.ledger.RequestSort()
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Sort failed", err, applog.OpSort, nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sortBody{Applied: dir.String(), View: s.ledger.Snapshot()})
}

// handleChart answers 204 while there is nothing to draw.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	view := s.ledger.Snapshot()

	var buf bytes.Buffer
	err := report.WritePieChart(&buf, ledger.SortedCategoryTotals(view.Transactions))
	if errors.Is(err, report.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Chart rendering failed", err, applog.OpRead, nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
