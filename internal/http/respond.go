package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"conti/internal/core"
	"conti/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError maps domain and storage errors onto HTTP statuses:
// validation failures are 422, missing rows 404, everything else 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownAccountKind),
		errors.Is(err, core.ErrUnknownTransactionKind),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyAccount),
		errors.Is(err, core.ErrZeroDate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// Wire representations. Money travels as decimal strings, dates as RFC 3339.
type (
	accountResponse struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		OpeningBalance string `json:"openingBalance"`
		Balance        string `json:"balance"`
		CreatedAt      string `json:"createdAt"`
	}

	transactionResponse struct {
		ID          string `json:"id"`
		AccountID   string `json:"accountId"`
		CategoryID  string `json:"categoryId,omitempty"`
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Date        string `json:"date"`
		IsRecurring bool   `json:"isRecurring"`
	}

	categoryResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
		Icon  string `json:"icon,omitempty"`
	}
)

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		OpeningBalance: a.OpeningBalance.String(),
		Balance:        a.Balance.String(),
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Date:        t.Date.UTC().Format(time.RFC3339),
		IsRecurring: t.IsRecurring,
	}
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Color: c.Color,
		Icon:  c.Icon,
	}
}
