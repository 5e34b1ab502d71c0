package core

import "time"

// MonthRange returns the first and last instant of t's calendar month, in
// t's location. The end is one millisecond before the start of the next
// month (23:59:59.999), so [start, end] covers the whole month inclusively
// for 28, 29, 30 and 31-day months alike.
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// PreviousMonth returns t shifted one calendar month earlier, keeping the
// day-of-month and time-of-day. January wraps into December of the prior
// year. Day-of-month overflow follows Go's AddDate normalization: the date
// rolls forward into the next month (Mar 31 minus one month is Feb 31,
// normalized to Mar 2 or Mar 3 depending on leap year).
func PreviousMonth(t time.Time) time.Time {
	return t.AddDate(0, -1, 0)
}
