package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"
)

// maxBodySize caps JSON request bodies at 64 KiB.
const maxBodySize = 64 << 10

type (
	accountRequest struct {
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		OpeningBalance string `json:"openingBalance"`
	}

	transactionRequest struct {
		AccountID   string `json:"accountId"`
		CategoryID  string `json:"categoryId"`
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Date        string `json:"date"`
		IsRecurring bool   `json:"isRecurring"`
	}

	categoryRequest struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (req accountRequest) toDomain(userID string) (core.Account, error) {
	opening, err := core.ParseBalance(req.OpeningBalance)
	if err != nil {
		return core.Account{}, fmt.Errorf("invalid opening balance %q", req.OpeningBalance)
	}
	return core.Account{
		UserID:         userID,
		Name:           sanitizeInput(req.Name),
		Kind:           core.AccountKind(strings.TrimSpace(req.Kind)),
		OpeningBalance: opening,
	}, nil
}

func (req transactionRequest) toDomain(userID string) (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", req.Date)
	}
	return core.Transaction{
		UserID:      userID,
		AccountID:   strings.TrimSpace(req.AccountID),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Kind:        core.TransactionKind(strings.TrimSpace(req.Kind)),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
		IsRecurring: req.IsRecurring,
	}, nil
}

func (req categoryRequest) toDomain(userID string) core.Category {
	return core.Category{
		UserID: userID,
		Name:   sanitizeInput(req.Name),
		Color:  strings.TrimSpace(req.Color),
		Icon:   strings.TrimSpace(req.Icon),
	}
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseYearMonth extracts year and month from query parameters, falling back
// to the current month. An out-of-range month is an error, not a silent
// correction.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, convErr := strconv.Atoi(v)
		if convErr != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}

	return year, month, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
