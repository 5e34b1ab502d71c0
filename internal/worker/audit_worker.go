package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conti/internal/amqp"
	"conti/internal/log"
	"conti/internal/services"
	"conti/internal/sheets"
)

// UserLister yields every user with at least one account. The SQLite
// repository satisfies it.
type UserLister interface {
	ListUsers(ctx context.Context) ([]string, error)
}

// AuditWorker reacts to transaction events: it re-audits the affected user's
// balances and, when a report writer is configured, exports the touched
// month's metrics. It also sweeps the whole ledger on a timer to catch
// anything a lost event would have skipped.
type AuditWorker struct {
	users   UserLister
	auditor *services.BalanceAuditor
	metrics *services.MetricsService
	reports sheets.ReportWriter
}

func NewAuditWorker(users UserLister, auditor *services.BalanceAuditor, metrics *services.MetricsService, reports sheets.ReportWriter) *AuditWorker {
	return &AuditWorker{
		users:   users,
		auditor: auditor,
		metrics: metrics,
		reports: reports,
	}
}

// HandleTransactionEvent processes one event from the queue. Audit failures
// are returned so the delivery is retried; a failed report export is logged
// but not retried, the periodic sweep will export again.
func (w *AuditWorker) HandleTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", event.TransactionID,
		"user_id", event.UserID,
		"action", event.Action,
		"year", event.Year,
		"month", event.Month)

	discrepancies, err := w.auditor.AuditUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("audit user %s: %w", event.UserID, err)
	}
	if len(discrepancies) > 0 {
		// Already logged per account by the auditor; surface the count.
		fields := log.NewFields().
			WithComponent(log.ComponentAudit).
			WithOperation(log.OpAudit).
			WithUser(event.UserID).
			WithMonth(event.Year, event.Month)
		fields["count"] = len(discrepancies)
		slog.ErrorContext(ctx, "Audit found balance discrepancies", fields.ToSlice()...)
	}

	w.exportMonth(ctx, event.UserID, event.Year, event.Month)
	return nil
}

// RunPeriodicAudit audits every user until ctx is cancelled, once per
// interval and once at startup.
func (w *AuditWorker) RunPeriodicAudit(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.auditAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.auditAll(ctx)
		}
	}
}

func (w *AuditWorker) auditAll(ctx context.Context) {
	users, err := w.users.ListUsers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for audit", "error", err)
		return
	}

	var flagged int
	for _, userID := range users {
		discrepancies, err := w.auditor.AuditUser(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Audit failed", "user_id", userID, "error", err)
			continue
		}
		flagged += len(discrepancies)
	}

	slog.InfoContext(ctx, "Ledger audit completed",
		"users", len(users),
		"discrepancies", flagged)
}

func (w *AuditWorker) exportMonth(ctx context.Context, userID string, year, month int) {
	if w.reports == nil {
		return
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	report, err := w.metrics.MonthlyComparison(ctx, userID, ref)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to compute metrics for export",
			"user_id", userID, "year", year, "month", month, "error", err)
		return
	}

	ref2, err := w.reports.AppendMonthlyReport(ctx, userID, year, month, report)
	if err != nil {
		fields := log.NewFields().
			WithComponent(log.ComponentSheets).
			WithOperation(log.OpExport).
			WithUser(userID).
			WithMonth(year, month).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to export monthly report", fields.ToSlice()...)
		return
	}

	slog.InfoContext(ctx, "Exported monthly report",
		"user_id", userID,
		"year", year,
		"month", month,
		"sheets_ref", ref2)
}
