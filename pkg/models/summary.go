package models

import "time"

// Summary is the AI-generated recap of one ISO week.
// At most one exists per (ISOYear, WeekOfYear).
type Summary struct {
	ID         int64
	Content    string
	StartDate  string // Monday, YYYY-MM-DD
	EndDate    string // Sunday, YYYY-MM-DD
	WeekOfYear int
	ISOYear    int
	CreatedAt  time.Time
}

// Existence reports whether a summary exists for a week and how the
// answer was obtained.
type Existence int

const (
	// Absent means no summary exists for the exact year and week
	Absent Existence = iota
	// Exists means a summary matched on both ISO year and week number
	Exists
	// ExistsWeekOnly means a summary matched on week number alone; the
	// backing store could not tell ISO years apart, so the match may belong
	// to a different year.
	ExistsWeekOnly
)

func (e Existence) String() string {
	switch e {
	case Exists:
		return "exists"
	case ExistsWeekOnly:
		return "exists (week number only)"
	default:
		return "absent"
	}
}
