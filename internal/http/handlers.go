package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ledgerbook/internal/core"
	applog "ledgerbook/internal/log"
)

const dateFormat = "2006-01-02"

type transactionResponse struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	RecordedAt  string `json:"recorded_at"`
	Note        string `json:"note,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AmountCents: tx.Amount.Cents,
		Kind:        string(tx.Kind),
		Category:    tx.Category,
		RecordedAt:  tx.RecordedAt.Format(time.RFC3339),
		Note:        tx.Note,
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		BalanceCents int64 `json:"balance_cents"`
	}{BalanceCents: s.service.Balance().Cents})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.service.Transactions()
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, r, http.StatusOK, struct {
		Transactions []transactionResponse `json:"transactions"`
	}{Transactions: out})
}

type createTransactionRequest struct {
	Amount   string `json:"amount"` // decimal string, e.g. "12.34"
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Note     string `json:"note"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "Decode request error", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	kind, err := core.ParseKind(strings.TrimSpace(req.Kind))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid kind")
		return
	}

	tx, err := s.service.Record(r.Context(), core.Money{Cents: cents}, kind,
		sanitizeInput(req.Category), sanitizeInput(req.Note))
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidKind) || errors.Is(err, core.ErrEmptyCategory) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Record transaction error", applog.FieldError, err,
			applog.FieldKind, req.Kind, applog.FieldCategory, req.Category)
		writeError(w, r, http.StatusInternalServerError, "failed to record transaction")
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, r, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusBadRequest, "missing transaction id")
		return
	}

	removed, err := s.service.Delete(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction error", applog.FieldError, err, applog.FieldTransactionID, id)
		writeError(w, r, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}

	s.invalidateReportCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	kind, err := core.ParseKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid kind")
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Kind       string   `json:"kind"`
		Categories []string `json:"categories"`
	}{Kind: string(kind), Categories: core.CategoriesFor(kind)})
}

type summaryResponse struct {
	WindowDays        int   `json:"window_days"`
	TotalIncomeCents  int64 `json:"total_income_cents"`
	TotalExpenseCents int64 `json:"total_expense_cents"`
	NetCents          int64 `json:"net_cents"`
	Count             int   `json:"count"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	days := parseWindowDays(r)
	key := cacheKey("summary", days)

	sum, found := s.summaryCache.Get(key)
	if !found {
		sum = s.engine.Summary(days)
		s.summaryCache.Set(key, sum)
	} else {
		slog.DebugContext(r.Context(), "Summary cache hit", applog.FieldWindowDays, days)
	}

	writeJSON(w, r, http.StatusOK, summaryResponse{
		WindowDays:        days,
		TotalIncomeCents:  sum.TotalIncome.Cents,
		TotalExpenseCents: sum.TotalExpense.Cents,
		NetCents:          sum.Net.Cents,
		Count:             sum.Count,
	})
}

type breakdownRow struct {
	Category     string  `json:"category"`
	AmountCents  int64   `json:"amount_cents"`
	Count        int     `json:"count"`
	SharePercent float64 `json:"share_percent"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	kind, err := core.ParseKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid kind")
		return
	}
	days := parseWindowDays(r)
	key := cacheKey("breakdown:"+string(kind), days)

	shares, found := s.breakdownCache.Get(key)
	if !found {
		shares = s.engine.CategoryBreakdown(kind, days)
		s.breakdownCache.Set(key, shares)
	} else {
		slog.DebugContext(r.Context(), "Breakdown cache hit", applog.FieldKind, string(kind), applog.FieldWindowDays, days)
	}

	rows := make([]breakdownRow, 0, len(shares))
	for _, g := range shares {
		rows = append(rows, breakdownRow{
			Category:     g.Category,
			AmountCents:  g.Amount.Cents,
			Count:        g.Count,
			SharePercent: g.SharePercent,
		})
	}
	writeJSON(w, r, http.StatusOK, struct {
		Kind       string         `json:"kind"`
		WindowDays int            `json:"window_days"`
		Rows       []breakdownRow `json:"rows"`
	}{Kind: string(kind), WindowDays: days, Rows: rows})
}

type trendRow struct {
	Date         string `json:"date"` // YYYY-MM-DD, local
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	days := parseWindowDays(r)
	key := cacheKey("trend", days)

	flows, found := s.trendCache.Get(key)
	if !found {
		flows = s.engine.DailyTrend(days)
		s.trendCache.Set(key, flows)
	} else {
		slog.DebugContext(r.Context(), "Trend cache hit", applog.FieldWindowDays, days)
	}

	rows := make([]trendRow, 0, len(flows))
	for _, d := range flows {
		rows = append(rows, trendRow{
			Date:         d.Date.Format(dateFormat),
			IncomeCents:  d.Income.Cents,
			ExpenseCents: d.Expense.Cents,
			NetCents:     d.Net.Cents,
		})
	}
	writeJSON(w, r, http.StatusOK, struct {
		WindowDays int        `json:"window_days"`
		Rows       []trendRow `json:"rows"`
	}{WindowDays: days, Rows: rows})
}
