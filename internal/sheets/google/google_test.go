package google

import (
	"context"
	"strings"
	"testing"

	"conti/internal/core"
)

func TestNew_RequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || !strings.Contains(err.Error(), "missing spreadsheet ID") {
		t.Errorf("New() error = %v, want missing spreadsheet ID", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "spreadsheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("New() error = %v, want missing service account credentials", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("inline JSON wins", func(t *testing.T) {
		data, err := loadCredentials(Options{CredentialsJSON: `{"type":"service_account"}`})
		if err != nil {
			t.Fatalf("loadCredentials() error = %v", err)
		}
		if string(data) != `{"type":"service_account"}` {
			t.Errorf("loadCredentials() = %s", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadCredentials(Options{CredentialsFile: "/nonexistent/creds.json"})
		if err == nil || !strings.Contains(err.Error(), "read service account file") {
			t.Errorf("loadCredentials() error = %v, want read failure", err)
		}
	})
}

func TestAppendMonthlyReport_Validation(t *testing.T) {
	t.Run("uninitialized service", func(t *testing.T) {
		c := &Client{}
		_, err := c.AppendMonthlyReport(context.Background(), "user-1", 2025, 3, core.MonthlyComparison{})
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Errorf("AppendMonthlyReport() error = %v, want not initialized", err)
		}
	})

	t.Run("invalid month", func(t *testing.T) {
		c := &Client{}
		_, err := c.AppendMonthlyReport(context.Background(), "user-1", 2025, 13, core.MonthlyComparison{})
		if err == nil || !strings.Contains(err.Error(), "invalid month") {
			t.Errorf("AppendMonthlyReport() error = %v, want invalid month", err)
		}
	})
}

func TestYearSheetName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base", "Reports", 2025, "2025 Reports"},
		{"already prefixed", "2024 Reports", 2025, "2024 Reports"},
		{"numeric-looking base", "12345", 2025, "2025 12345"},
		{"short base", "R", 2025, "2025 R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearSheetName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearSheetName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}
