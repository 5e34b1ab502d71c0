package http

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"conti/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "bare date",
			input: "2025-03-15",
			want:  time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "RFC 3339",
			input: "2025-03-15T14:30:00Z",
			want:  time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:    "wrong separator",
			input:   "15/03/2025",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDate(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{name: "both provided", query: "?year=2024&month=12", wantYear: 2024, wantMonth: 12},
		{name: "month too high", query: "?year=2024&month=13", wantErr: true},
		{name: "month zero", query: "?year=2024&month=0", wantErr: true},
		{name: "non-numeric year", query: "?year=abcd", wantErr: true},
		{name: "non-numeric month", query: "?month=march", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/dashboard/metrics"+tt.query, nil)
			year, month, err := parseYearMonth(r)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseYearMonth(%q) expected error", tt.query)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseYearMonth(%q) error = %v", tt.query, err)
			}
			if year != tt.wantYear || month != tt.wantMonth {
				t.Errorf("parseYearMonth(%q) = %d/%d, want %d/%d", tt.query, year, month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseYearMonth_DefaultsToCurrentMonth(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/dashboard/metrics", nil)
	year, month, err := parseYearMonth(r)
	if err != nil {
		t.Fatalf("parseYearMonth() error = %v", err)
	}
	now := time.Now()
	if year != now.Year() || month != int(now.Month()) {
		t.Errorf("parseYearMonth() = %d/%d, want current %d/%d", year, month, now.Year(), int(now.Month()))
	}
}

func TestTransactionRequest_ToDomain(t *testing.T) {
	req := transactionRequest{
		AccountID:   " acc-1 ",
		Kind:        "expense",
		Amount:      "12,50",
		Description: "coffee\x00beans",
		Date:        "2025-03-15",
		IsRecurring: true,
	}

	tx, err := req.toDomain("user-1")
	if err != nil {
		t.Fatalf("toDomain() error = %v", err)
	}
	if tx.AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want trimmed acc-1", tx.AccountID)
	}
	if tx.Amount.String() != "12.5" {
		t.Errorf("Amount = %v, want 12.5 (comma normalized)", tx.Amount)
	}
	if tx.Description != "coffeebeans" {
		t.Errorf("Description = %q, want control characters stripped", tx.Description)
	}
	if !tx.IsRecurring {
		t.Error("IsRecurring not carried over")
	}
}

func TestTransactionRequest_ToDomain_SignedAmountRejected(t *testing.T) {
	for _, amount := range []string{"-5", "+5", "0", ""} {
		req := transactionRequest{AccountID: "acc-1", Kind: "expense", Amount: amount, Date: "2025-03-15"}
		if _, err := req.toDomain("user-1"); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("toDomain() amount %q error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"tab\tkept", "tab\tkept"},
		{"null\x00stripped", "nullstripped"},
		{"bell\x07stripped", "bellstripped"},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
