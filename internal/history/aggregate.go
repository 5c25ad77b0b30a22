package history

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

// NormalizeContent is the form in which entries are compared for runs:
// lowercased, trimmed and with inner whitespace collapsed to single spaces
func NormalizeContent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DuplicateGroupID derives a group ID from the week key and the ID of the
// run's first entry
func DuplicateGroupID(weekKey string, firstEntryID int64) string {
	return fmt.Sprintf("dup:%s:%d", weekKey, firstEntryID)
}

// TransformWeek aggregates a raw week into its view model. It is pure:
// the same input always yields the same output.
func TransformWeek(raw RawWeek) WeekGroup {
	key := raw.Week.Key()

	// Group entries by calendar date
	byDate := make(map[string][]models.Entry)
	for _, e := range raw.Entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	days := make([]DayGroup, 0, len(byDate))
	total := 0
	for date, entries := range byDate {
		day := buildDay(key, date, entries)
		total += day.TotalEntries
		days = append(days, day)
	}

	// Newest day first
	slices.SortFunc(days, func(a, b DayGroup) int {
		return strings.Compare(b.Date, a.Date)
	})

	state := summarize.StatePending
	if raw.Summary != nil {
		state = summarize.StateSuccess
	}

	return WeekGroup{
		Week:         raw.Week,
		Key:          key,
		StartDate:    raw.Start.Format(calendar.DateLayout),
		EndDate:      raw.End.Format(calendar.DateLayout),
		Label:        calendar.RangeLabel(raw.Start, raw.End),
		Days:         days,
		Summary:      raw.Summary,
		SummaryState: state,
		TotalEntries: total,
	}
}

// buildDay detects runs oldest-first, then reverses for newest-first display
func buildDay(weekKey, date string, entries []models.Entry) DayGroup {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var items []DayItem
	total := 0
	for start := 0; start < len(sorted); {
		norm := NormalizeContent(sorted[start].Content)
		end := start + 1
		for end < len(sorted) && NormalizeContent(sorted[end].Content) == norm {
			end++
		}

		item := runItem(weekKey, sorted[start:end])
		total += item.EntryCount()
		items = append(items, item)
		start = end
	}

	slices.Reverse(items)

	return DayGroup{
		Date:         date,
		Items:        items,
		TotalEntries: total,
		WeekKey:      weekKey,
	}
}

// runItem turns a run into a standalone entry (length 1) or a group
func runItem(weekKey string, run []models.Entry) DayItem {
	if len(run) == 1 {
		return DayItem{Entry: &EntryView{Entry: run[0]}}
	}

	id := DuplicateGroupID(weekKey, run[0].ID)
	group := &DuplicateGroup{
		ID:       id,
		WeekKey:  weekKey,
		Content:  run[0].Content,
		Count:    len(run),
		EntryIDs: make([]int64, len(run)),
		Entries:  make([]EntryView, len(run)),
	}
	for i, e := range run {
		group.EntryIDs[i] = e.ID
		group.Entries[i] = EntryView{Entry: e, DuplicateGroupID: id}
	}
	group.FirstEntry = group.Entries[0]

	return DayItem{Group: group}
}

// FilterWeeksWithContent drops weeks with no entries and no summary
func FilterWeeksWithContent(weeks []WeekGroup) []WeekGroup {
	out := make([]WeekGroup, 0, len(weeks))
	for _, w := range weeks {
		if w.HasContent() {
			out = append(out, w)
		}
	}
	return out
}

// SortWeeksDescending orders weeks newest first and assigns OrderIndex
func SortWeeksDescending(weeks []WeekGroup) []WeekGroup {
	out := slices.Clone(weeks)
	slices.SortStableFunc(out, func(a, b WeekGroup) int {
		return b.Week.Compare(a.Week)
	})
	reindex(out)
	return out
}

func reindex(weeks []WeekGroup) {
	for i := range weeks {
		weeks[i].OrderIndex = i
	}
}

// TransformWeeks runs the full pipeline over a batch of raw weeks
func TransformWeeks(raws []RawWeek) []WeekGroup {
	weeks := make([]WeekGroup, 0, len(raws))
	for _, raw := range raws {
		weeks = append(weeks, TransformWeek(raw))
	}
	return SortWeeksDescending(FilterWeeksWithContent(weeks))
}
