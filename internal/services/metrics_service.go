package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"conti/internal/core"
)

// MonthEntrySource yields the metric-relevant slice of one month's
// transactions. The SQLite repository satisfies it.
type MonthEntrySource interface {
	ListMonthEntries(ctx context.Context, userID string, start, end time.Time) ([]core.MonthEntry, error)
}

// MetricsService computes monthly metrics on demand. Nothing is persisted:
// every call reduces the live transaction set, so the figures always reflect
// the current ledger.
type MetricsService struct {
	entries MonthEntrySource
}

func NewMetricsService(entries MonthEntrySource) *MetricsService {
	return &MetricsService{entries: entries}
}

// MonthlyMetrics returns the five totals for ref's calendar month.
func (s *MetricsService) MonthlyMetrics(ctx context.Context, userID string, ref time.Time) (core.MonthlyMetrics, error) {
	start, end := core.MonthRange(ref)
	entries, err := s.entries.ListMonthEntries(ctx, userID, start, end)
	if err != nil {
		return core.MonthlyMetrics{}, fmt.Errorf("list month entries: %w", err)
	}
	return core.ReduceMonthlyMetrics(entries), nil
}

// MonthlyComparison returns ref's month metrics with percentage changes
// against the previous calendar month. The two months are fetched
// concurrently.
func (s *MetricsService) MonthlyComparison(ctx context.Context, userID string, ref time.Time) (core.MonthlyComparison, error) {
	var current, previous core.MonthlyMetrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.MonthlyMetrics(gctx, userID, ref)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.MonthlyMetrics(gctx, userID, core.PreviousMonth(ref))
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyComparison{}, err
	}

	return core.CompareMonthlyMetrics(current, previous), nil
}
