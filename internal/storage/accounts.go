package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conti/internal/core"
)

// CreateAccount inserts a new account. The running balance starts at the
// opening balance; only transaction writes move it afterwards.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a *core.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Balance = a.OpeningBalance

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, kind, opening_balance, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Kind),
		a.OpeningBalance.String(), a.Balance.String(),
		formatTxDate(now), formatTxDate(now))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"user_id", a.UserID,
		"kind", a.Kind,
		"opening_balance", a.OpeningBalance.String())
	return nil
}

// GetAccount returns one account scoped to its owner.
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, kind, opening_balance, balance, created_at, updated_at
		FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

// ListAccounts returns all accounts owned by the user, oldest first.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, kind, opening_balance, balance, created_at, updated_at
		FROM accounts WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account and, via the schema's ON DELETE CASCADE,
// all of its transactions.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Account deleted", "account_id", id, "user_id", userID)
	return nil
}

// ListUsers returns the distinct owners of all accounts. The audit worker
// iterates these when it sweeps the whole ledger.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var kind, opening, balance, createdAt, updated string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &kind, &opening, &balance, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}

	a.Kind = core.AccountKind(kind)
	if a.OpeningBalance, err = core.ParseBalance(opening); err != nil {
		return core.Account{}, fmt.Errorf("account %s opening balance: %w", a.ID, err)
	}
	if a.Balance, err = core.ParseBalance(balance); err != nil {
		return core.Account{}, fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	if a.CreatedAt, err = parseTxDate(createdAt); err != nil {
		return core.Account{}, err
	}
	if a.UpdatedAt, err = parseTxDate(updated); err != nil {
		return core.Account{}, err
	}
	return a, nil
}
