package domain

import "time"

// DateLayout is the ISO calendar-day format used for window bounds.
const DateLayout = "2006-01-02"

// Window is a trailing date range of Days days ending on End (inclusive).
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
	Days  int       `json:"days"`
}

// NewWindow returns the window of days ending on the calendar day of now.
func NewWindow(now time.Time, days int) Window {
	end := TruncateDay(now)
	return Window{
		Start: end.AddDate(0, 0, -days),
		End:   end,
		Days:  days,
	}
}

// Filter converts the window into a transaction filter excluding pending transactions.
func (w Window) Filter() TransactionFilter {
	start, end := w.Start, w.End
	return TransactionFilter{Start: &start, End: &end}
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	day := TruncateDay(t)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Months returns the window length expressed in 30-day months.
func (w Window) Months() float64 {
	if w.Days <= 0 {
		return 0
	}
	return float64(w.Days) / 30.0
}

// TruncateDay returns midnight UTC of t's calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
