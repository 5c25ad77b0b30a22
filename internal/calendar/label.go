package calendar

import "time"

// DateLayout is the calendar-day format shared with the store
const DateLayout = "2006-01-02"

// RangeLabel returns a header label for a week such as "Mar 3 - 9, 2025",
// "Mar 31 - Apr 6, 2025" or "Dec 29, 2025 - Jan 4, 2026"
func RangeLabel(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
	case start.Month() != end.Month():
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return start.Format("Jan 2") + " - " + end.Format("2, 2006")
	}
}

// Label returns RangeLabel for the week's own range
func (w Week) Label() string {
	return RangeLabel(w.Range())
}
