// Package calendar converts between calendar days, ISO 8601 week identifiers,
// week keys and Monday to Sunday date ranges.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidWeekKey is returned by ParseKey for anything that is not a
// canonical "<year>-W<2-digit week>" key naming an existing ISO week
var ErrInvalidWeekKey = errors.New("invalid week key")

var weekKeyPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Week identifies one ISO 8601 week
type Week struct {
	Year   int // ISO year, which can differ from the calendar year near January 1
	Number int // 1..WeeksInYear(Year)
}

// WeekOf returns the ISO week containing the calendar day of t.
// Week 1 is the week holding the year's first Thursday, so January 4
// always falls in week 1.
func WeekOf(t time.Time) Week {
	year, week := t.ISOWeek()
	return Week{Year: year, Number: week}
}

// WeeksInYear returns 52 or 53. December 28 always falls in the last ISO
// week of its year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// Years outside this range have no four-digit key
const (
	MinYear = 0
	MaxYear = 9999
)

// Valid reports whether w names a week that exists in its ISO year and
// has a four-digit key
func (w Week) Valid() bool {
	if w.Year < MinYear || w.Year > MaxYear {
		return false
	}
	return w.Number >= 1 && w.Number <= WeeksInYear(w.Year)
}

// Range returns the Monday and Sunday of w as UTC midnights
func (w Week) Range() (start, end time.Time) {
	// Monday of week 1: walk back from January 4 to its Monday
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	anchor := jan4.AddDate(0, 0, -offset)

	start = anchor.AddDate(0, 0, 7*(w.Number-1))
	end = start.AddDate(0, 0, 6)
	return start, end
}

// DateRange returns Range formatted as YYYY-MM-DD strings
func (w Week) DateRange() (start, end string) {
	s, e := w.Range()
	return s.Format(DateLayout), e.Format(DateLayout)
}

// Prev returns the week before w, crossing into the last week of the
// previous ISO year when needed
func (w Week) Prev() Week {
	if w.Number <= 1 {
		return Week{Year: w.Year - 1, Number: WeeksInYear(w.Year - 1)}
	}
	return Week{Year: w.Year, Number: w.Number - 1}
}

// Next returns the week after w, crossing into week 1 of the next ISO
// year when needed
func (w Week) Next() Week {
	if w.Number >= WeeksInYear(w.Year) {
		return Week{Year: w.Year + 1, Number: 1}
	}
	return Week{Year: w.Year, Number: w.Number + 1}
}

// Compare orders weeks by (Year, Number): -1 if w is earlier than o,
// +1 if later, 0 if equal
func (w Week) Compare(o Week) int {
	switch {
	case w.Year < o.Year:
		return -1
	case w.Year > o.Year:
		return 1
	case w.Number < o.Number:
		return -1
	case w.Number > o.Number:
		return 1
	default:
		return 0
	}
}

// Before reports whether w is strictly earlier than o
func (w Week) Before(o Week) bool {
	return w.Compare(o) < 0
}

// EndsBefore reports whether the Sunday of w is strictly before the
// calendar day of now, i.e. whether the week is completed
func (w Week) EndsBefore(now time.Time) bool {
	_, end := w.Range()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.Before(today)
}

// Key returns the canonical week key, e.g. "2025-W01"
func (w Week) Key() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Number)
}

func (w Week) String() string {
	return w.Key()
}

// ParseKey is the inverse of Week.Key
func ParseKey(key string) (Week, error) {
	m := weekKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeekKey, key)
	}

	// The pattern guarantees digits, so Atoi cannot fail
	year, _ := strconv.Atoi(m[1])
	number, _ := strconv.Atoi(m[2])

	w := Week{Year: year, Number: number}
	if !w.Valid() {
		return Week{}, fmt.Errorf("%w: %q has no week %d", ErrInvalidWeekKey, key, number)
	}
	return w, nil
}
