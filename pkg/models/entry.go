package models

import "time"

// DateLayout is the calendar-day format used for Entry.Date and summary ranges
const DateLayout = "2006-01-02"

// Entry represents a single work-log line in the journal
type Entry struct {
	ID         int64
	Content    string
	Date       string // YYYY-MM-DD, local calendar day
	WeekOfYear int
	ISOYear    int
	CreatedAt  time.Time
}

// NewEntry creates a new Entry stamped at the given instant.
// The calendar day and ISO week are derived from at's location.
func NewEntry(content string, at time.Time) *Entry {
	year, week := at.ISOWeek()
	return &Entry{
		Content:    content,
		Date:       at.Format(DateLayout),
		WeekOfYear: week,
		ISOYear:    year,
		CreatedAt:  at,
	}
}
