package services

import "time"

// endOfDay returns the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// monthWindow returns the first and last instants of the month containing ref.
func monthWindow(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := endOfDay(start.AddDate(0, 1, -1))
	return start, end
}

// yearWindow returns the first and last instants of the year containing ref.
func yearWindow(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, ref.Location())
	end := time.Date(ref.Year(), 12, 31, 23, 59, 59, 999999999, ref.Location())
	return start, end
}

// dayKey formats t as the YYYY-MM-DD bucket used by the daily series.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
