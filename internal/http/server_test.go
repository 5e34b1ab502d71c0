package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"conti/internal/services"
	"conti/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewLedgerService(repo, nil)
	metrics := services.NewMetricsService(repo)
	srv := NewServer(":0", ledger, metrics, Options{})
	t.Cleanup(func() {
		srv.cacheManager.Stop()
		srv.rateLimiter.stop()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createAccount(t *testing.T, srv *Server, userID, name, kind, opening string) accountResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", userID, map[string]string{
		"name": name, "kind": kind, "openingBalance": opening,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var account accountResponse
	decodeBody(t, rec, &account)
	return account
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestAPIRequiresUserHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/accounts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded chain takes first hop", "203.0.113.5, 10.0.0.1, 10.0.0.2", "", "192.0.2.1:1234", "203.0.113.5"},
		{"single forwarded value", "203.0.113.5", "", "192.0.2.1:1234", "203.0.113.5"},
		{"real ip fallback", "", "203.0.113.7", "192.0.2.1:1234", "203.0.113.7"},
		{"remote addr fallback strips port", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"blank forwarded entry ignored", " , 10.0.0.1", "", "192.0.2.1:1234", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientAddr(req); got != tt.want {
				t.Errorf("clientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadinessReflectsDatabase(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}

	ledger := services.NewLedgerService(repo, nil)
	metrics := services.NewMetricsService(repo)
	srv := NewServer(":0", ledger, metrics, Options{})
	t.Cleanup(func() {
		srv.cacheManager.Stop()
		srv.rateLimiter.stop()
	})

	rec := doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz with live database status = %d, want 200", rec.Code)
	}

	repo.Close()

	rec = doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz with closed database status = %d, want 503", rec.Code)
	}
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	srv := newTestServer(t)

	// Rotate X-Forwarded-For on every request; the limiter must still count
	// them against the one underlying peer.
	for i := 0; i < rateLimitPerWindow; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewBufferString("{}"))
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d rate limited before the window was exhausted", i+1)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewBufferString("{}"))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-Forwarded-For", "203.0.113.99")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 once the peer's window is exhausted", rec.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "user-1", "Main checking", "checking", "250.00")
	if account.Balance != "250" {
		t.Errorf("initial balance = %v, want 250", account.Balance)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/accounts/"+account.ID, "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: status = %d", rec.Code)
	}

	// Other users cannot see it.
	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+account.ID, "user-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/accounts/"+account.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete account: status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+account.ID, "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestCreateAccount_RejectsUnknownKind(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", "user-1", map[string]string{
		"name": "Broker", "kind": "brokerage", "openingBalance": "0",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestTransactionMovesBalance(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "user-1", "Card", "credit_card", "0")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", map[string]any{
		"accountId": account.ID,
		"kind":      "expense",
		"amount":    "75.50",
		"date":      "2025-03-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+account.ID, "user-1", nil)
	var got accountResponse
	decodeBody(t, rec, &got)
	if got.Balance != "75.5" {
		t.Errorf("credit card balance = %v, want 75.5 (debt grows)", got.Balance)
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "user-1", "Checking", "checking", "0")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "negative amount",
			body: map[string]any{"accountId": account.ID, "kind": "expense", "amount": "-5", "date": "2025-03-01"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "zero amount",
			body: map[string]any{"accountId": account.ID, "kind": "expense", "amount": "0", "date": "2025-03-01"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown kind",
			body: map[string]any{"accountId": account.ID, "kind": "refund", "amount": "5", "date": "2025-03-01"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: map[string]any{"accountId": account.ID, "kind": "expense", "amount": "5", "date": "15/03/2025"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing account",
			body: map[string]any{"accountId": "nope", "kind": "expense", "amount": "5", "date": "2025-03-01"},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDashboardMetrics(t *testing.T) {
	srv := newTestServer(t)
	checking := createAccount(t, srv, "user-1", "Checking", "checking", "1000")
	card := createAccount(t, srv, "user-1", "Card", "credit_card", "0")

	post := func(body map[string]any) {
		t.Helper()
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	post(map[string]any{"accountId": checking.ID, "kind": "expense", "amount": "40", "date": "2025-03-05"})
	post(map[string]any{"accountId": card.ID, "kind": "expense", "amount": "60", "date": "2025-03-10", "isRecurring": true})
	post(map[string]any{"accountId": card.ID, "kind": "interest_charge", "amount": "5", "date": "2025-03-20"})
	// Previous month baseline.
	post(map[string]any{"accountId": checking.ID, "kind": "expense", "amount": "50", "date": "2025-02-10"})

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=3", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d", rec.Code)
	}
	var metrics map[string]string
	decodeBody(t, rec, &metrics)
	if metrics["totalExpenses"] != "100" {
		t.Errorf("totalExpenses = %v, want 100", metrics["totalExpenses"])
	}
	if metrics["interestPaid"] != "5" {
		t.Errorf("interestPaid = %v, want 5", metrics["interestPaid"])
	}
	if metrics["recurringCharges"] != "60" {
		t.Errorf("recurringCharges = %v, want 60", metrics["recurringCharges"])
	}
	if metrics["creditCardSpending"] != "60" {
		t.Errorf("creditCardSpending = %v, want 60", metrics["creditCardSpending"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/comparison?year=2025&month=3", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("comparison: status = %d", rec.Code)
	}
	var comparison map[string]string
	decodeBody(t, rec, &comparison)
	if comparison["totalExpensesChange"] != "100" {
		t.Errorf("totalExpensesChange = %v, want 100 (50 to 100)", comparison["totalExpensesChange"])
	}
}

func TestDashboard_InvalidMonthRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=13", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMetricsCacheInvalidatedOnMutation(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "user-1", "Checking", "checking", "0")

	// Warm the cache with an empty month.
	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=3", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", map[string]any{
		"accountId": account.ID, "kind": "expense", "amount": "30", "date": "2025-03-12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=3", "user-1", nil)
	var metrics map[string]string
	decodeBody(t, rec, &metrics)
	if metrics["totalExpenses"] != "30" {
		t.Errorf("totalExpenses after mutation = %v, want 30 (stale cache?)", metrics["totalExpenses"])
	}
}

func TestUpdateTransaction_MovesMonths(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "user-1", "Checking", "checking", "0")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", map[string]any{
		"accountId": account.ID, "kind": "expense", "amount": "20", "date": "2025-03-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var created transactionResponse
	decodeBody(t, rec, &created)

	// Warm both month caches.
	doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=3", "user-1", nil)
	doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=4", "user-1", nil)

	rec = doJSON(t, srv, http.MethodPut, "/api/transactions/"+created.ID, "user-1", map[string]any{
		"accountId": account.ID, "kind": "expense", "amount": "20", "date": "2025-04-02",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=3", "user-1", nil)
	var march map[string]string
	decodeBody(t, rec, &march)
	if march["totalExpenses"] != "0" {
		t.Errorf("march totalExpenses = %v, want 0 after move", march["totalExpenses"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/metrics?year=2025&month=4", "user-1", nil)
	var april map[string]string
	decodeBody(t, rec, &april)
	if april["totalExpenses"] != "20" {
		t.Errorf("april totalExpenses = %v, want 20 after move", april["totalExpenses"])
	}
}

func TestDeleteTransaction_RestoresBalance(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "user-1", "Checking", "checking", "500")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", "user-1", map[string]any{
		"accountId": account.ID, "kind": "expense", "amount": "120", "date": "2025-03-10",
	})
	var created transactionResponse
	decodeBody(t, rec, &created)

	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+account.ID, "user-1", nil)
	var got accountResponse
	decodeBody(t, rec, &got)
	if got.Balance != "500" {
		t.Errorf("balance after delete = %v, want 500", got.Balance)
	}
}
