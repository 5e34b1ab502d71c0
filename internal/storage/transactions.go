package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"conti/internal/core"
)

// CreateTransaction inserts a transaction row and applies its balance delta
// to the owning account in one unit of work. If any step fails the whole
// write rolls back, so the row and the balance can never diverge.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		kind, balance, err := accountForUpdate(ctx, tx, t.UserID, t.AccountID)
		if err != nil {
			return err
		}

		delta, err := core.BalanceDelta(kind, t.Kind, t.Amount)
		if err != nil {
			return err
		}

		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		return setBalance(ctx, tx, t.AccountID, balance.Add(delta), now)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"kind", t.Kind,
		"amount", t.Amount.String())
	return nil
}

// UpdateTransaction rewrites a transaction and adjusts balances atomically:
// the old effect is reversed and the new one applied in the same unit of
// work, even when the transaction moves to a different account.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	t.UpdatedAt = now

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, t.UserID, t.ID)
		if err != nil {
			return err
		}

		oldKind, oldBalance, err := accountForUpdate(ctx, tx, t.UserID, old.AccountID)
		if err != nil {
			return err
		}
		oldDelta, err := core.BalanceDelta(oldKind, old.Kind, old.Amount)
		if err != nil {
			return fmt.Errorf("reverse old effect: %w", err)
		}

		if t.AccountID == old.AccountID {
			net, err := core.UpdateDelta(oldKind, old.Kind, old.Amount, t.Kind, t.Amount)
			if err != nil {
				return err
			}
			if err := updateTransactionRow(ctx, tx, t); err != nil {
				return err
			}
			return setBalance(ctx, tx, t.AccountID, oldBalance.Add(net), now)
		}

		// Moving between accounts: reverse on the old one, apply on the new.
		newKind, newBalance, err := accountForUpdate(ctx, tx, t.UserID, t.AccountID)
		if err != nil {
			return err
		}
		newDelta, err := core.BalanceDelta(newKind, t.Kind, t.Amount)
		if err != nil {
			return err
		}
		if err := updateTransactionRow(ctx, tx, t); err != nil {
			return err
		}
		if err := setBalance(ctx, tx, old.AccountID, oldBalance.Sub(oldDelta), now); err != nil {
			return err
		}
		return setBalance(ctx, tx, t.AccountID, newBalance.Add(newDelta), now)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"kind", t.Kind,
		"amount", t.Amount.String())
	return nil
}

// DeleteTransaction removes a transaction and reverses its balance effect
// in one unit of work. It returns the deleted transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var deleted core.Transaction
	now := time.Now().UTC()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		kind, balance, err := accountForUpdate(ctx, tx, userID, old.AccountID)
		if err != nil {
			return err
		}
		delta, err := core.BalanceDelta(kind, old.Kind, old.Amount)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if err := setBalance(ctx, tx, old.AccountID, balance.Sub(delta), now); err != nil {
			return err
		}
		deleted = old
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", id,
		"account_id", deleted.AccountID,
		"user_id", userID)
	return deleted, nil
}

// GetTransaction returns one transaction scoped to its owner.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var t core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = getTransactionTx(ctx, tx, userID, id)
		return err
	})
	return t, err
}

// ListMonthEntries fetches every transaction for the user whose date falls in
// [start, end], inclusive of both endpoints, joined with the owning account's
// kind. This is the single fetch behind the monthly metrics reduction.
func (r *SQLiteRepository) ListMonthEntries(ctx context.Context, userID string, start, end time.Time) ([]core.MonthEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.kind, t.amount, t.is_recurring, a.kind
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = ? AND t.tx_date BETWEEN ? AND ?`,
		userID, formatTxDate(start), formatTxDate(end))
	if err != nil {
		return nil, fmt.Errorf("list month entries: %w", err)
	}
	defer rows.Close()

	var entries []core.MonthEntry
	for rows.Next() {
		var (
			e           core.MonthEntry
			kind, aKind string
			amount      string
			recurring   int64
		)
		if err := rows.Scan(&kind, &amount, &recurring, &aKind); err != nil {
			return nil, fmt.Errorf("scan month entry: %w", err)
		}
		e.Kind = core.TransactionKind(kind)
		e.AccountKind = core.AccountKind(aKind)
		e.IsRecurring = recurring != 0
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse entry amount %q: %w", amount, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month entries: %w", err)
	}
	return entries, nil
}

// ListTransactions returns the user's transactions with dates in
// [start, end], newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, COALESCE(category_id, ''), kind, amount,
		       description, tx_date, is_recurring, created_at, updated_at
		FROM transactions
		WHERE user_id = ? AND tx_date BETWEEN ? AND ?
		ORDER BY tx_date DESC, id`,
		userID, formatTxDate(start), formatTxDate(end))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListAccountTransactions returns every transaction of one account, oldest
// first. Used by the balance audit to replay an account's history.
func (r *SQLiteRepository) ListAccountTransactions(ctx context.Context, userID, accountID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, COALESCE(category_id, ''), kind, amount,
		       description, tx_date, is_recurring, created_at, updated_at
		FROM transactions
		WHERE user_id = ? AND account_id = ?
		ORDER BY tx_date, id`,
		userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var ts []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return ts, nil
}

// accountForUpdate reads an account's kind and balance inside the current
// unit of work. SQLite's transaction takes a write lock before commit, so
// this read-modify-write cannot lose updates to concurrent writers.
func accountForUpdate(ctx context.Context, tx *sql.Tx, userID, accountID string) (core.AccountKind, decimal.Decimal, error) {
	var kind, balance string
	err := tx.QueryRowContext(ctx,
		`SELECT kind, balance FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID).Scan(&kind, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", decimal.Zero, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("load account %s: %w", accountID, err)
	}
	b, err := core.ParseBalance(balance)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("account %s balance: %w", accountID, err)
	}
	return core.AccountKind(kind), b, nil
}

func setBalance(ctx context.Context, tx *sql.Tx, accountID string, balance decimal.Decimal, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), formatTxDate(now), accountID); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	var categoryID any
	if t.CategoryID != "" {
		categoryID = t.CategoryID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, kind, amount,
		                          description, tx_date, is_recurring, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, categoryID, string(t.Kind), t.Amount.String(),
		t.Description, formatTxDate(t.Date), boolToInt(t.IsRecurring),
		formatTxDate(t.CreatedAt), formatTxDate(t.UpdatedAt)); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func updateTransactionRow(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	var categoryID any
	if t.CategoryID != "" {
		categoryID = t.CategoryID
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, kind = ?, amount = ?,
		    description = ?, tx_date = ?, is_recurring = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.AccountID, categoryID, string(t.Kind), t.Amount.String(),
		t.Description, formatTxDate(t.Date), boolToInt(t.IsRecurring),
		formatTxDate(t.UpdatedAt), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, userID, id string) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, COALESCE(category_id, ''), kind, amount,
		       description, tx_date, is_recurring, created_at, updated_at
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var kind, amount, txDate, created, updated string
	var recurring int64
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &kind, &amount,
		&t.Description, &txDate, &recurring, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Kind = core.TransactionKind(kind)
	t.IsRecurring = recurring != 0
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.Date, err = parseTxDate(txDate); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTxDate(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTxDate(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
