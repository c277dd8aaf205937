package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/report"
	"ledgerbook/internal/services"
)

type memStorage struct {
	state ledger.State
}

func (m *memStorage) Load(ctx context.Context) (ledger.State, error) { return m.state, nil }
func (m *memStorage) Save(ctx context.Context, state ledger.State) error {
	m.state = state
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clock := core.FixedClock(now)

	l, err := ledger.Open(context.Background(), &memStorage{}, clock)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	service := services.NewLedgerService(l, nil)
	engine := report.NewEngine(l, clock)
	return NewServer(":0", service, engine, time.Minute)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func createTransaction(t *testing.T, s *Server, amount, kind, category string) transactionResponse {
	t.Helper()
	body := `{"amount":"` + amount + `","kind":"` + kind + `","category":"` + category + `"}`
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions = %d, body %s", rec.Code, rec.Body.String())
	}
	var tx transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return tx
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	s := newTestServer(t)

	tx := createTransaction(t, s, "55.00", "expense", "餐饮🍜")
	if tx.ID == "" {
		t.Error("response should carry a generated id")
	}
	if tx.AmountCents != 5500 || tx.Kind != "expense" || tx.Category != "餐饮🍜" {
		t.Errorf("response = %+v", tx)
	}
	if _, err := time.Parse(time.RFC3339, tx.RecordedAt); err != nil {
		t.Errorf("recorded_at %q is not RFC3339: %v", tx.RecordedAt, err)
	}
}

func TestCreateTransaction_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed JSON", `{`, http.StatusBadRequest},
		{"bad amount", `{"amount":"abc","kind":"expense","category":"c"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"amount":"0","kind":"expense","category":"c"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"amount":"-5","kind":"expense","category":"c"}`, http.StatusUnprocessableEntity},
		{"bad kind", `{"amount":"5","kind":"transfer","category":"c"}`, http.StatusUnprocessableEntity},
		{"empty category", `{"amount":"5","kind":"expense","category":"  "}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := doRequest(t, s, http.MethodGet, "/api/balance", "")
	var bal struct {
		BalanceCents int64 `json:"balance_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if bal.BalanceCents != 0 {
		t.Errorf("balance = %d after rejected requests, want 0", bal.BalanceCents)
	}
}

func TestBalanceAndList(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "1000", "income", "工资💰")
	createTransaction(t, s, "200", "expense", "餐饮🍜")

	rec := doRequest(t, s, http.MethodGet, "/api/balance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/balance = %d", rec.Code)
	}
	var bal struct {
		BalanceCents int64 `json:"balance_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if bal.BalanceCents != 80000 {
		t.Errorf("balance_cents = %d, want 80000", bal.BalanceCents)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions", "")
	var list struct {
		Transactions []transactionResponse `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Transactions) != 2 {
		t.Fatalf("len(transactions) = %d, want 2", len(list.Transactions))
	}
	if list.Transactions[0].Kind != "income" || list.Transactions[1].Kind != "expense" {
		t.Errorf("transactions out of insertion order: %+v", list.Transactions)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	tx := createTransaction(t, s, "25.00", "expense", "交通🚇")

	rec := doRequest(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204 (body %s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/transactions/", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("DELETE without id = %d, want 400", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "1000", "income", "工资💰")
	createTransaction(t, s, "200", "expense", "餐饮🍜")

	rec := doRequest(t, s, http.MethodGet, "/api/summary?days=30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/summary = %d", rec.Code)
	}
	var sum summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.TotalIncomeCents != 100000 || sum.TotalExpenseCents != 20000 || sum.NetCents != 80000 || sum.Count != 2 {
		t.Errorf("summary = %+v", sum)
	}

	// Zero-day window matches nothing.
	rec = doRequest(t, s, http.MethodGet, "/api/summary?days=0", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Count != 0 || sum.NetCents != 0 {
		t.Errorf("summary for zero window = %+v", sum)
	}
}

func TestBreakdownEndpoint(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "55.00", "expense", "餐饮🍜")
	createTransaction(t, s, "25.00", "expense", "交通🚇")
	createTransaction(t, s, "1000", "income", "工资💰")

	rec := doRequest(t, s, http.MethodGet, "/api/breakdown?kind=expense&days=30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/breakdown = %d", rec.Code)
	}
	var resp struct {
		Kind string         `json:"kind"`
		Rows []breakdownRow `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(resp.Rows))
	}
	if resp.Rows[0].Category != "餐饮🍜" || resp.Rows[0].SharePercent != 68.75 {
		t.Errorf("rows[0] = %+v", resp.Rows[0])
	}
	if resp.Rows[1].Category != "交通🚇" || resp.Rows[1].SharePercent != 31.25 {
		t.Errorf("rows[1] = %+v", resp.Rows[1])
	}

	rec = doRequest(t, s, http.MethodGet, "/api/breakdown?kind=loan", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("GET with bad kind = %d, want 422", rec.Code)
	}
}

func TestTrendEndpoint(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "1000", "income", "工资💰")
	createTransaction(t, s, "200", "expense", "餐饮🍜")

	rec := doRequest(t, s, http.MethodGet, "/api/trend?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/trend = %d", rec.Code)
	}
	var resp struct {
		Rows []trendRow `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(resp.Rows))
	}
	row := resp.Rows[0]
	if row.Date != "2025-06-15" {
		t.Errorf("date = %q, want 2025-06-15", row.Date)
	}
	if row.IncomeCents != 100000 || row.ExpenseCents != 20000 || row.NetCents != 80000 {
		t.Errorf("row = %+v", row)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/categories?kind=expense", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/categories = %d", rec.Code)
	}
	var resp struct {
		Kind       string   `json:"kind"`
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if resp.Kind != "expense" || len(resp.Categories) == 0 {
		t.Errorf("categories = %+v", resp)
	}
}

func TestMutationInvalidatesReportCache(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "1000", "income", "工资💰")

	// Prime the summary cache.
	doRequest(t, s, http.MethodGet, "/api/summary?days=30", "")

	createTransaction(t, s, "200", "expense", "餐饮🍜")

	rec := doRequest(t, s, http.MethodGet, "/api/summary?days=30", "")
	var sum summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Count != 2 || sum.TotalExpenseCents != 20000 {
		t.Errorf("summary served stale cache entry: %+v", sum)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/balance", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/balance = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodGet {
		t.Errorf("Allow = %q, want GET", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/balance", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients should not be affected")
	}
}
