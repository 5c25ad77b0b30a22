// Package history turns the flat journal into paginated, week-grouped and
// duplicate-compressed view models, and owns the in-memory collection the
// rendering layer reads.
package history

import (
	"strconv"
	"time"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

// RawWeek is one week as fetched from the store, before aggregation
type RawWeek struct {
	Week    calendar.Week
	Start   time.Time // Monday
	End     time.Time // Sunday
	Entries []models.Entry
	Summary *models.Summary
}

// EntryView is an entry plus transient UI flags
type EntryView struct {
	models.Entry
	IsEditing        bool
	IsSaving         bool
	DraftContent     *string
	DuplicateGroupID string // set by aggregation when the entry belongs to a run
}

// DuplicateGroup is a maximal run of consecutive entries on one day with
// equal normalized content. ID is stable across re-aggregation.
type DuplicateGroup struct {
	ID         string
	WeekKey    string
	Content    string
	Count      int
	EntryIDs   []int64     // oldest first
	FirstEntry EntryView   // oldest entry of the run
	Entries    []EntryView // oldest first
	Expanded   bool
}

// DayItem is either a standalone entry or a duplicate group
type DayItem struct {
	Entry *EntryView
	Group *DuplicateGroup
}

// EntryCount is 1 for a standalone entry and Count for a group
func (it DayItem) EntryCount() int {
	if it.Group != nil {
		return it.Group.Count
	}
	return 1
}

// ID returns the group ID, or "entry:<id>" for a standalone entry
func (it DayItem) ID() string {
	if it.Group != nil {
		return it.Group.ID
	}
	return "entry:" + strconv.FormatInt(it.Entry.ID, 10)
}

// DayGroup holds one calendar day's items, newest first
type DayGroup struct {
	Date         string
	Items        []DayItem
	TotalEntries int
	WeekKey      string
}

// WeekGroup is the display model of one ISO week
type WeekGroup struct {
	Week           calendar.Week
	Key            string
	StartDate      string
	EndDate        string
	Label          string
	Days           []DayGroup // newest first
	Summary        *models.Summary
	SummaryState   summarize.CardState
	SummaryMessage string
	Collapsed      bool
	TotalEntries   int
	OrderIndex     int // position after sorting, not identity
}

// HasContent reports whether the week has any entry or a summary
func (w *WeekGroup) HasContent() bool {
	return w.TotalEntries > 0 || w.Summary != nil
}

// FindEntry returns the entry with the given ID, standalone or inside a group
func (w *WeekGroup) FindEntry(id int64) *EntryView {
	for d := range w.Days {
		for i := range w.Days[d].Items {
			item := &w.Days[d].Items[i]
			if item.Entry != nil && item.Entry.ID == id {
				return item.Entry
			}
			if item.Group != nil {
				for j := range item.Group.Entries {
					if item.Group.Entries[j].ID == id {
						return &item.Group.Entries[j]
					}
				}
			}
		}
	}
	return nil
}

// FindGroup returns the duplicate group with the given ID
func (w *WeekGroup) FindGroup(id string) *DuplicateGroup {
	for d := range w.Days {
		for i := range w.Days[d].Items {
			if g := w.Days[d].Items[i].Group; g != nil && g.ID == id {
				return g
			}
		}
	}
	return nil
}

// clone deep-copies the parts of a week the orchestrator mutates, so
// callers holding a returned snapshot never observe later changes
func (w WeekGroup) clone() WeekGroup {
	days := make([]DayGroup, len(w.Days))
	for d, day := range w.Days {
		items := make([]DayItem, len(day.Items))
		for i, item := range day.Items {
			if item.Entry != nil {
				e := *item.Entry
				items[i].Entry = &e
			}
			if item.Group != nil {
				g := *item.Group
				g.Entries = append([]EntryView(nil), item.Group.Entries...)
				g.EntryIDs = append([]int64(nil), item.Group.EntryIDs...)
				items[i].Group = &g
			}
		}
		day.Items = items
		days[d] = day
	}
	w.Days = days
	return w
}
