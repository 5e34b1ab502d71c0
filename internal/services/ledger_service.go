package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/storage"
)

// EventPublisher publishes transaction events after a ledger write. The AMQP
// client satisfies it; tests substitute a fake.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// LedgerService orchestrates account and transaction writes across SQLite and
// AMQP. The balance adjustment and the row write commit together inside
// storage; event publishing happens after commit and never fails the request.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateAccount validates and persists a new account. The running balance
// starts at the opening balance.
// Ping reports whether the storage backend still answers.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *LedgerService) CreateAccount(ctx context.Context, a *core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.storage.CreateAccount(ctx, a); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *LedgerService) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	return s.storage.GetAccount(ctx, userID, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID)
}

// DeleteAccount removes an account and, through the schema, every transaction
// on it.
func (s *LedgerService) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// CreateTransaction validates the transaction, writes it together with the
// balance adjustment, then publishes a created event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	s.publishEvent(ctx, amqp.NewTransactionEvent(t.ID, t.UserID, t.AccountID, amqp.ActionCreated, t.Date))
	return nil
}

// UpdateTransaction validates the new version, applies the delta between the
// old and new effect to the affected balances, then publishes updated events
// for every touched month.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	old, err := s.storage.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publishEvent(ctx, amqp.NewTransactionEvent(t.ID, t.UserID, t.AccountID, amqp.ActionUpdated, t.Date))
	if old.Date.Year() != t.Date.Year() || old.Date.Month() != t.Date.Month() {
		// The move out of the old month changes that month's metrics too.
		s.publishEvent(ctx, amqp.NewTransactionEvent(t.ID, t.UserID, old.AccountID, amqp.ActionUpdated, old.Date))
	}
	return nil
}

// DeleteTransaction removes the row and reverses its balance effect, then
// publishes a deleted event.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	deleted, err := s.storage.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, amqp.NewTransactionEvent(deleted.ID, deleted.UserID, deleted.AccountID, amqp.ActionDeleted, deleted.Date))
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

// ListTransactions returns the user's transactions within ref's calendar
// month, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, ref time.Time) ([]core.Transaction, error) {
	start, end := core.MonthRange(ref)
	return s.storage.ListTransactions(ctx, userID, start, end)
}

// CreateCategory validates and persists a new category.
func (s *LedgerService) CreateCategory(ctx context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

// DeleteCategory removes a category; its transactions stay and become
// uncategorized.
func (s *LedgerService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *LedgerService) publishEvent(ctx context.Context, event *amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event")
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		// The write is already committed; the worker reconciles on its own
		// schedule, so a lost event is not fatal.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", event.TransactionID,
			"action", event.Action,
			"error", err)
	}
}

// Close closes both storage and the publisher when it owns a connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
