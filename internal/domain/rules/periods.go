package rules

import "time"

// DateKey formats an instant as the UTC calendar date used to gate the
// daily free-swipe reset.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey formats an instant as the UTC year-month used to gate the
// monthly boost grant.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// NextDailyRunAt returns the next daily reset tick strictly after now.
// The reset fires at hh:mm UTC every day.
func NextDailyRunAt(now time.Time, hour, minute int) time.Time {
	utc := now.UTC()
	next := time.Date(utc.Year(), utc.Month(), utc.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(utc) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextMonthlyRunAt returns the next monthly grant tick strictly after now.
// The grant fires on day 1 at hh:mm UTC.
func NextMonthlyRunAt(now time.Time, hour, minute int) time.Time {
	utc := now.UTC()
	next := time.Date(utc.Year(), utc.Month(), 1, hour, minute, 0, 0, time.UTC)
	if !next.After(utc) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
