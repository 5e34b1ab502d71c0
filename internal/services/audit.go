package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/log"
)

// AccountHistorySource yields accounts and their full transaction history.
// The SQLite repository satisfies it.
type AccountHistorySource interface {
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	ListAccountTransactions(ctx context.Context, userID, accountID string) ([]core.Transaction, error)
}

// Discrepancy reports an account whose stored balance disagrees with the
// balance replayed from its opening balance and transaction history.
type Discrepancy struct {
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Stored    decimal.Decimal `json:"stored"`
	Replayed  decimal.Decimal `json:"replayed"`
}

// BalanceAuditor replays each account's history and checks the stored running
// balance against the result. Because the balance adjustment and the row
// write commit together, a discrepancy means corruption and is worth an
// alert.
type BalanceAuditor struct {
	history AccountHistorySource
}

func NewBalanceAuditor(history AccountHistorySource) *BalanceAuditor {
	return &BalanceAuditor{history: history}
}

// AuditUser replays every account of the user. It returns the discrepancies
// found; an empty slice means all balances check out.
func (a *BalanceAuditor) AuditUser(ctx context.Context, userID string) ([]Discrepancy, error) {
	accounts, err := a.history.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var discrepancies []Discrepancy
	for _, account := range accounts {
		replayed, err := a.replay(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("replay account %s: %w", account.ID, err)
		}

		if !replayed.Equal(account.Balance) {
			discrepancies = append(discrepancies, Discrepancy{
				AccountID: account.ID,
				Name:      account.Name,
				Stored:    account.Balance,
				Replayed:  replayed,
			})
			slog.ErrorContext(ctx, "Balance discrepancy detected",
				log.FieldUserID, userID,
				log.FieldAccountID, account.ID,
				"stored", account.Balance.String(),
				"replayed", replayed.String())
		}
	}

	return discrepancies, nil
}

func (a *BalanceAuditor) replay(ctx context.Context, account core.Account) (decimal.Decimal, error) {
	transactions, err := a.history.ListAccountTransactions(ctx, account.UserID, account.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions: %w", err)
	}

	balance := account.OpeningBalance
	for _, t := range transactions {
		delta, err := core.BalanceDelta(account.Kind, t.Kind, t.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		balance = balance.Add(delta)
	}
	return balance, nil
}
