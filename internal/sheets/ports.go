package sheets

import (
	"context"

	"conti/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter exports one user's monthly figures, totals plus their
	// month-over-month changes, to an external report.
	ReportWriter interface {
		AppendMonthlyReport(ctx context.Context, userID string, year, month int, report core.MonthlyComparison) (rowRef string, err error)
	}
)
