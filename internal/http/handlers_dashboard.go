package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

func (s *Server) handleMonthlyMetrics(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userFrom(r)
	key := cacheKey(userID, year, month)

	if data, found := s.metricsCache.Get(key); found {
		slog.DebugContext(r.Context(), "Metrics cache hit", "year", year, "month", month)
		respondJSON(w, http.StatusOK, data)
		return
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	metrics, err := s.metrics.MonthlyMetrics(r.Context(), userID, ref)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.metricsCache.Set(key, metrics)
	respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleMonthlyComparison(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userFrom(r)
	key := cacheKey(userID, year, month)

	if data, found := s.comparisonCache.Get(key); found {
		slog.DebugContext(r.Context(), "Comparison cache hit", "year", year, "month", month)
		respondJSON(w, http.StatusOK, data)
		return
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	comparison, err := s.metrics.MonthlyComparison(r.Context(), userID, ref)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.comparisonCache.Set(key, comparison)
	respondJSON(w, http.StatusOK, comparison)
}

func cacheKey(userID string, year, month int) string {
	return userID + ":" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateMonth drops cached figures a mutation in the given month can
// affect: that month's metrics and comparison, plus the next month's
// comparison, which uses this month as its baseline.
func (s *Server) invalidateMonth(userID string, date time.Time) {
	year, month := date.Year(), int(date.Month())
	s.metricsCache.Delete(cacheKey(userID, year, month))
	s.comparisonCache.Delete(cacheKey(userID, year, month))

	next := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	s.comparisonCache.Delete(cacheKey(userID, next.Year(), int(next.Month())))
}

// invalidateUser drops every cached month for the user. Used when a cascade
// can touch an unknown set of months, e.g. account deletion.
func (s *Server) invalidateUser(userID string) {
	// The caches have no per-user index; entries are few and TTL-bounded,
	// so a full sweep is acceptable here.
	s.metricsCache.DeletePrefix(userID + ":")
	s.comparisonCache.DeletePrefix(userID + ":")
}
