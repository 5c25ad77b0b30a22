package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

func newTestHistory(t *testing.T, store *fakeStore, sum Summarizer, opts ...Option) *History {
	t.Helper()
	loader := newTestLoader(t, store)
	opts = append([]Option{WithNotificationTTL(time.Hour)}, opts...)
	h, err := New(loader, store, sum, opts...)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

// addWeekly puts one entry on the Monday of every week from newest back
// through oldest
func addWeekly(store *fakeStore, newest, oldest calendar.Week) {
	for w := newest; !w.Before(oldest); w = w.Prev() {
		start, _ := w.Range()
		store.add("work "+w.Key(), time.Date(start.Year(), start.Month(), start.Day(), 9, 0, 0, 0, time.Local))
	}
}

func weekKeys(weeks []WeekGroup) []string {
	keys := make([]string, len(weeks))
	for i, w := range weeks {
		keys[i] = w.Key
	}
	return keys
}

func assertStrictlyDescending(t *testing.T, keys []string) {
	t.Helper()
	for i := 1; i < len(keys); i++ {
		prev, err := calendar.ParseKey(keys[i-1])
		require.NoError(t, err)
		cur, err := calendar.ParseKey(keys[i])
		require.NoError(t, err)
		assert.True(t, cur.Before(prev), "%s should be before %s", keys[i], keys[i-1])
	}
}

func hasNotification(h *History, level Level, substr string) bool {
	for _, n := range h.Notifications() {
		if n.Level == level && strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func TestNew_RequiresCollaborators(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(t, store)

	_, err := New(nil, store, &fakeSummarizer{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
	_, err = New(loader, nil, &fakeSummarizer{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
	_, err = New(loader, store, nil)
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestLoadInitial_ShowsOnlyWeeksWithContent(t *testing.T) {
	// Given: entries in W11 and W08, a summary alone in W09
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	store.add("older", time.Date(2025, time.February, 18, 9, 0, 0, 0, time.Local))
	store.addSummary(calendar.Week{Year: 2025, Number: 9}, "quiet week")
	h := newTestHistory(t, store, &fakeSummarizer{})

	// When: loading the first page
	require.NoError(t, h.LoadInitial(context.Background()))

	// Then: W10 is empty and hidden
	weeks := h.Weeks()
	assert.Equal(t, []string{"2025-W11", "2025-W09", "2025-W08"}, weekKeys(weeks))
	for i, w := range weeks {
		assert.Equal(t, i, w.OrderIndex)
	}

	// And: pagination records every walked week and the earliest
	p := h.Pagination()
	assert.Equal(t, []string{"2025-W11", "2025-W10", "2025-W09", "2025-W08"}, p.LoadedWeekKeys)
	require.NotNil(t, p.EarliestLoaded)
	assert.Equal(t, "2025-W08", p.EarliestLoaded.Key())
	assert.False(t, p.HasMore)
	assert.False(t, p.Loading)
}

func TestLoadMore_IsMonotonic(t *testing.T) {
	// Given: one entry in every week of 2025 up to W11
	store := newFakeStore()
	addWeekly(store, calendar.Week{Year: 2025, Number: 11}, calendar.Week{Year: 2025, Number: 1})
	h := newTestHistory(t, store, &fakeSummarizer{}, WithPageSize(3))
	ctx := context.Background()

	require.NoError(t, h.LoadInitial(ctx))
	require.True(t, h.Pagination().HasMore)

	// When: loading two more pages
	before := h.Pagination().EarliestLoaded
	require.NoError(t, h.LoadMore(ctx))
	after := h.Pagination()
	require.NoError(t, h.LoadMore(ctx))
	last := h.Pagination()

	// Then: each page is strictly older than the one before
	assert.True(t, after.EarliestLoaded.Before(*before))
	assert.True(t, last.EarliestLoaded.Before(*after.EarliestLoaded))
	assert.Len(t, last.LoadedWeekKeys, 9)
	assertStrictlyDescending(t, last.LoadedWeekKeys)

	// And: visible weeks keep their order and positions
	weeks := h.Weeks()
	assert.Equal(t, "2025-W11", weeks[0].Key)
	assert.Equal(t, "2025-W03", weeks[len(weeks)-1].Key)
	assertStrictlyDescending(t, weekKeys(weeks))
	for i, w := range weeks {
		assert.Equal(t, i, w.OrderIndex)
	}
}

func TestLoadMore_NoopWithoutMore(t *testing.T) {
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()

	require.NoError(t, h.LoadInitial(ctx))
	require.False(t, h.Pagination().HasMore)
	calls := store.calls()

	require.NoError(t, h.LoadMore(ctx))

	assert.Equal(t, calls, store.calls(), "no fetch when nothing older is known")
}

func TestLoadMore_NoopBeforeInitialLoad(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store, &fakeSummarizer{})

	require.NoError(t, h.LoadMore(context.Background()))

	assert.Zero(t, store.calls())
}

func TestRefresh_FailureKeepsPreviousWeeks(t *testing.T) {
	// Given: a loaded history
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	// When: every week becomes unreadable
	w := calendar.Week{Year: 2025, Number: 11}
	for i := 0; i < DefaultPageSize; i++ {
		store.fail(w, errors.New("database is locked"))
		w = w.Prev()
	}
	err := h.Refresh(ctx)

	// Then: the error surfaces and the old weeks stay visible
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, []string{"2025-W11"}, weekKeys(h.Weeks()))
	assert.Contains(t, h.LastError(), "database is locked")
	assert.True(t, hasNotification(h, LevelError, "Could not load history"))
}

func TestLoadInitial_PartialFailureDropsWeek(t *testing.T) {
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	store.add("last week", march(5, 9, 0))
	store.fail(week10, errors.New("corrupt page"))
	h := newTestHistory(t, store, &fakeSummarizer{})

	require.NoError(t, h.LoadInitial(context.Background()))

	assert.Equal(t, []string{"2025-W11"}, weekKeys(h.Weeks()))
	assert.NotContains(t, h.Pagination().LoadedWeekKeys, "2025-W10")
	assert.True(t, hasNotification(h, LevelError, "1 week(s) could not be loaded"))
}

func TestRefresh_KeepsCollapseAndExpansion(t *testing.T) {
	// Given: W10 collapsed with an expanded duplicate group
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	store.add("fix bug", march(5, 9, 5))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	require.True(t, h.ToggleWeekCollapsed("2025-W10"))
	require.True(t, h.ToggleDuplicateGroup("2025-W10", "dup:2025-W10:1"))

	// When: an entry is added elsewhere and the view refreshes
	store.add("review", march(6, 9, 0))
	require.NoError(t, h.Refresh(ctx))

	// Then: the new entry shows and UI state survives
	week, ok := h.Week("2025-W10")
	require.True(t, ok)
	assert.Equal(t, 3, week.TotalEntries)
	assert.True(t, week.Collapsed)
	group := week.FindGroup("dup:2025-W10:1")
	require.NotNil(t, group)
	assert.True(t, group.Expanded)
}

func TestUpdateWeek_TargetsOneWeek(t *testing.T) {
	store := newFakeStore()
	addWeekly(store, calendar.Week{Year: 2025, Number: 11}, calendar.Week{Year: 2025, Number: 9})
	h := newTestHistory(t, store, &fakeSummarizer{})
	require.NoError(t, h.LoadInitial(context.Background()))

	assert.False(t, h.UpdateWeek("2024-W01", func(w *WeekGroup) {}))
	assert.True(t, h.UpdateWeek("2025-W10", func(w *WeekGroup) { w.SummaryMessage = "hi" }))

	weeks := h.Weeks()
	assert.Equal(t, "hi", weeks[1].SummaryMessage)
	assert.Empty(t, weeks[0].SummaryMessage)
	assert.Empty(t, weeks[2].SummaryMessage)

	// A week emptied by an update is dropped
	h.UpdateWeek("2025-W10", func(w *WeekGroup) {
		w.Days = nil
		w.TotalEntries = 0
	})
	weeks = h.Weeks()
	assert.Equal(t, []string{"2025-W11", "2025-W09"}, weekKeys(weeks))
	assert.Equal(t, 1, weeks[1].OrderIndex)
}

func TestRemoveWeek(t *testing.T) {
	store := newFakeStore()
	addWeekly(store, calendar.Week{Year: 2025, Number: 11}, calendar.Week{Year: 2025, Number: 10})
	h := newTestHistory(t, store, &fakeSummarizer{})
	require.NoError(t, h.LoadInitial(context.Background()))

	assert.True(t, h.RemoveWeek("2025-W11"))
	assert.False(t, h.RemoveWeek("2025-W11"))

	weeks := h.Weeks()
	require.Len(t, weeks, 1)
	assert.Equal(t, 0, weeks[0].OrderIndex)
}

func TestWeeks_ReturnsSnapshot(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	require.NoError(t, h.LoadInitial(context.Background()))

	weeks := h.Weeks()
	weeks[0].Days[0].Items[0].Entry.Content = "mutated"

	week, _ := h.Week("2025-W10")
	assert.Equal(t, "fix bug", week.Days[0].Items[0].Entry.Content)
}

func TestSaveEntry_ReaggregatesWeek(t *testing.T) {
	// Given: a typo that breaks a run
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	typo := store.add("fix bgu", march(5, 9, 5))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	// When: editing the typo
	require.True(t, h.BeginEdit("2025-W10", typo.ID))
	week, _ := h.Week("2025-W10")
	e := week.FindEntry(typo.ID)
	require.NotNil(t, e)
	assert.True(t, e.IsEditing)
	require.NotNil(t, e.DraftContent)
	assert.Equal(t, "fix bgu", *e.DraftContent)

	require.True(t, h.SetDraft("2025-W10", typo.ID, "fix bug"))
	require.NoError(t, h.SaveEntry(ctx, "2025-W10", typo.ID))

	// Then: the two entries now form one run and edit mode is gone
	week, _ = h.Week("2025-W10")
	require.Len(t, week.Days[0].Items, 1)
	group := week.Days[0].Items[0].Group
	require.NotNil(t, group)
	assert.Equal(t, 2, group.Count)
	assert.False(t, week.FindEntry(typo.ID).IsEditing)
	assert.True(t, hasNotification(h, LevelSuccess, "Entry saved"))
}

func TestSaveEntry_FailureKeepsDraft(t *testing.T) {
	store := newFakeStore()
	e := store.add("fix bug", march(5, 9, 0))
	store.updateErr = errors.New("read-only database")
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	h.BeginEdit("2025-W10", e.ID)
	h.SetDraft("2025-W10", e.ID, "fix the bug")
	err := h.SaveEntry(ctx, "2025-W10", e.ID)

	require.Error(t, err)
	week, _ := h.Week("2025-W10")
	view := week.FindEntry(e.ID)
	assert.True(t, view.IsEditing)
	assert.False(t, view.IsSaving)
	assert.Equal(t, "fix the bug", *view.DraftContent)
	assert.Contains(t, h.LastError(), "read-only database")
}

func TestSaveEntry_RejectsEmptyDraft(t *testing.T) {
	store := newFakeStore()
	e := store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	h.BeginEdit("2025-W10", e.ID)
	h.SetDraft("2025-W10", e.ID, "   ")

	assert.ErrorIs(t, h.SaveEntry(ctx, "2025-W10", e.ID), models.ErrEmptyContent)
}

func TestSaveEntry_RequiresEditMode(t *testing.T) {
	store := newFakeStore()
	e := store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	assert.ErrorIs(t, h.SaveEntry(ctx, "2025-W10", e.ID), ErrNotEditing)
	assert.ErrorIs(t, h.SaveEntry(ctx, "2025-W10", 999), ErrEntryNotLoaded)

	h.BeginEdit("2025-W10", e.ID)
	require.True(t, h.CancelEdit("2025-W10", e.ID))
	assert.ErrorIs(t, h.SaveEntry(ctx, "2025-W10", e.ID), ErrNotEditing)
}

func TestConfirmDelete_LastEntryRemovesWeek(t *testing.T) {
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	e := store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	target := DeleteTarget{Kind: DeleteEntry, WeekKey: "2025-W10", ID: e.ID}
	h.RequestDelete(target)
	prompt, ok := h.DeletePrompt()
	require.True(t, ok)
	assert.Equal(t, target, prompt)

	require.NoError(t, h.ConfirmDelete(ctx))

	_, ok = h.DeletePrompt()
	assert.False(t, ok)
	assert.Equal(t, []string{"2025-W11"}, weekKeys(h.Weeks()))
	assert.True(t, hasNotification(h, LevelSuccess, "Entry deleted"))
}

func TestConfirmDelete_Summary(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := store.addSummary(week10, "Weekly recap")
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	h.RequestDelete(DeleteTarget{Kind: DeleteSummary, WeekKey: "2025-W10", ID: sum.ID})
	require.NoError(t, h.ConfirmDelete(ctx))

	week, ok := h.Week("2025-W10")
	require.True(t, ok)
	assert.Nil(t, week.Summary)
	assert.Equal(t, summarize.StatePending, week.SummaryState)
}

func TestConfirmDelete_FailureClosesPrompt(t *testing.T) {
	store := newFakeStore()
	e := store.add("fix bug", march(5, 9, 0))
	store.deleteErr = errors.New("busy")
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	h.RequestDelete(DeleteTarget{Kind: DeleteEntry, WeekKey: "2025-W10", ID: e.ID})
	require.Error(t, h.ConfirmDelete(ctx))

	_, ok := h.DeletePrompt()
	assert.False(t, ok)
	assert.Len(t, h.Weeks(), 1)
	assert.True(t, hasNotification(h, LevelError, "Could not delete entry"))
}

func TestConfirmDelete_WithoutPrompt(t *testing.T) {
	h := newTestHistory(t, newFakeStore(), &fakeSummarizer{})

	h.RequestDelete(DeleteTarget{Kind: DeleteEntry, ID: 1})
	h.CancelDelete()

	assert.ErrorIs(t, h.ConfirmDelete(context.Background()), ErrNoPrompt)
}

func TestEditSummary(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	store.addSummary(week10, "Weekly recap")
	h := newTestHistory(t, store, &fakeSummarizer{})
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	require.NoError(t, h.EditSummary(ctx, "2025-W10", "Better recap"))

	week, _ := h.Week("2025-W10")
	assert.Equal(t, "Better recap", week.Summary.Content)
	assert.ErrorIs(t, h.EditSummary(ctx, "2025-W11", "nothing here"), models.ErrNotFound)
}

func TestGenerateSummary_IncompleteWeekSkipsGenerating(t *testing.T) {
	store := newFakeStore()
	store.add("today", march(12, 9, 0))
	sum := &fakeSummarizer{
		completed: false,
		result:    summarize.Result{State: summarize.StateFailed, Message: "week not completed"},
	}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))

	var seen summarize.CardState
	sum.onGenerate = func() {
		w, _ := h.Week("2025-W11")
		seen = w.SummaryState
	}

	res := h.GenerateSummary(context.Background(), "2025-W11")

	assert.Equal(t, summarize.StateFailed, res.State)
	assert.Equal(t, summarize.StatePending, seen, "never shown as generating")
	week, _ := h.Week("2025-W11")
	assert.Equal(t, summarize.StateFailed, week.SummaryState)
	assert.Equal(t, "week not completed", week.SummaryMessage)
}

func TestGenerateSummary_SuccessFoldsSummary(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := &fakeSummarizer{
		completed: true,
		result: summarize.Result{
			OK:      true,
			State:   summarize.StateSuccess,
			Summary: &models.Summary{ID: 42, Content: "Weekly recap"},
		},
	}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))

	var seen summarize.CardState
	sum.onGenerate = func() {
		w, _ := h.Week("2025-W10")
		seen = w.SummaryState
	}

	res := h.GenerateSummary(context.Background(), "2025-W10")

	assert.True(t, res.OK)
	assert.Equal(t, summarize.StateGenerating, seen)
	week, _ := h.Week("2025-W10")
	assert.Equal(t, summarize.StateSuccess, week.SummaryState)
	assert.Equal(t, "Weekly recap", week.Summary.Content)
}

func TestGenerateSummary_AlreadyExistsReconciles(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := &fakeSummarizer{
		completed: true,
		result:    summarize.Result{State: summarize.StateAlreadyExists, Message: "summary already exists for week"},
	}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))

	// Given: another client saved a summary after the page loaded
	store.addSummary(week10, "From elsewhere")

	h.GenerateSummary(context.Background(), "2025-W10")

	week, _ := h.Week("2025-W10")
	assert.Equal(t, summarize.StateSuccess, week.SummaryState)
	require.NotNil(t, week.Summary)
	assert.Equal(t, "From elsewhere", week.Summary.Content)
}

func TestGenerateSummary_AlreadyExistsWithoutSummary(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := &fakeSummarizer{
		completed: true,
		result:    summarize.Result{State: summarize.StateAlreadyExists, Message: "summary already exists for week"},
	}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))

	h.GenerateSummary(context.Background(), "2025-W10")

	week, _ := h.Week("2025-W10")
	assert.Equal(t, summarize.StateAlreadyExists, week.SummaryState)
}

func TestGenerateSummary_FailureStates(t *testing.T) {
	tests := []struct {
		name  string
		state summarize.CardState
		msg   string
	}{
		{"unauthorized", summarize.StateUnauthorized, "not signed in"},
		{"limit reached", summarize.StateLimitReached, "quota exceeded"},
		{"unsupported", summarize.StateUnsupported, "summary for arbitrary past week unsupported"},
		{"failed", summarize.StateFailed, "provider down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.add("fix bug", march(5, 9, 0))
			sum := &fakeSummarizer{completed: true, result: summarize.Result{State: tt.state, Message: tt.msg}}
			h := newTestHistory(t, store, sum)
			require.NoError(t, h.LoadInitial(context.Background()))

			h.GenerateSummary(context.Background(), "2025-W10")

			week, _ := h.Week("2025-W10")
			assert.Equal(t, tt.state, week.SummaryState)
			assert.Equal(t, tt.msg, week.SummaryMessage)
			assert.Equal(t, tt.msg, h.LastError())
			assert.True(t, hasNotification(h, LevelError, tt.msg))
		})
	}
}

func TestGenerateSummary_InProgressIsRejected(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := &fakeSummarizer{completed: true}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))
	h.UpdateWeek("2025-W10", func(w *WeekGroup) { w.SummaryState = summarize.StateGenerating })

	res := h.GenerateSummary(context.Background(), "2025-W10")

	assert.Equal(t, summarize.StateGenerating, res.State)
	assert.Zero(t, sum.calls)
}

func TestGenerateSummary_DropsResultForRemovedWeek(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	sum := &fakeSummarizer{
		completed: true,
		result:    summarize.Result{OK: true, State: summarize.StateSuccess, Summary: &models.Summary{ID: 1, Content: "late"}},
	}
	h := newTestHistory(t, store, sum)
	require.NoError(t, h.LoadInitial(context.Background()))
	sum.onGenerate = func() { h.RemoveWeek("2025-W10") }

	res := h.GenerateSummary(context.Background(), "2025-W10")

	assert.True(t, res.OK)
	_, ok := h.Week("2025-W10")
	assert.False(t, ok)
}

func TestGenerateSummary_UnknownWeek(t *testing.T) {
	sum := &fakeSummarizer{completed: true}
	h := newTestHistory(t, newFakeStore(), sum)

	res := h.GenerateSummary(context.Background(), "2025-W10")

	assert.Equal(t, summarize.StateFailed, res.State)
	assert.Zero(t, sum.calls)
}

func TestEndToEnd_DuplicateBadgeAndSummary(t *testing.T) {
	// Given: fix bug twice then standup, all on one day of 2025-W10
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	store.add("fix bug", march(5, 9, 30))
	store.add("standup", march(5, 10, 0))

	gen := &fakeGenerator{response: summarize.Response{OK: true, Summary: "Weekly recap"}}
	machine, err := summarize.New(store, fakeTokens{token: "tok"}, gen, summarize.WithNow(inWeek11))
	require.NoError(t, err)
	h := newTestHistory(t, store, machine)
	ctx := context.Background()
	require.NoError(t, h.LoadInitial(ctx))

	// When: generating the week's summary
	res := h.GenerateSummary(ctx, "2025-W10")

	// Then: the summary is saved and shown
	require.True(t, res.OK, res.Message)
	week, ok := h.Week("2025-W10")
	require.True(t, ok)
	assert.Equal(t, summarize.StateSuccess, week.SummaryState)
	require.NotNil(t, week.Summary)
	assert.Equal(t, "Weekly recap", week.Summary.Content)

	// And: the day shows standup then a badge of two for fix bug
	require.Len(t, week.Days, 1)
	items := week.Days[0].Items
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Entry)
	assert.Equal(t, "standup", items[0].Entry.Content)
	require.NotNil(t, items[1].Group)
	assert.Equal(t, "fix bug", items[1].Group.Content)
	assert.Equal(t, 2, items[1].Group.Count)

	// And: the generator saw every entry
	require.Len(t, gen.requests, 1)
	assert.Len(t, gen.requests[0].Entries, 3)
	assert.Equal(t, "2025-03-03", gen.requests[0].WeekStart)
}

func TestNotifications_ExpireOnTheirOwn(t *testing.T) {
	h := newTestHistory(t, newFakeStore(), &fakeSummarizer{}, WithNotificationTTL(20*time.Millisecond))

	h.Notify(LevelInfo, "hello")
	require.Len(t, h.Notifications(), 1)

	assert.Eventually(t, func() bool {
		return len(h.Notifications()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotifications_DismissIsIndependent(t *testing.T) {
	h := newTestHistory(t, newFakeStore(), &fakeSummarizer{})

	first := h.Notify(LevelInfo, "first")
	second := h.Notify(LevelError, "second")
	assert.NotEqual(t, first, second)

	assert.True(t, h.DismissNotification(first))
	assert.False(t, h.DismissNotification(first))

	remaining := h.Notifications()
	require.Len(t, remaining, 1)
	assert.Equal(t, second, remaining[0].ID)
	assert.Equal(t, LevelError, remaining[0].Level)
}

func newRecapMachine(t *testing.T, store *fakeStore) *summarize.Machine {
	t.Helper()
	gen := &fakeGenerator{response: summarize.Response{OK: true, Summary: "Weekly recap"}}
	machine, err := summarize.New(store, fakeTokens{token: "tok"}, gen, summarize.WithNow(inWeek11))
	require.NoError(t, err)
	return machine
}

func TestRefresh_KeepsSummaryGeneratedDuringFetch(t *testing.T) {
	store := newFakeStore()
	store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, newRecapMachine(t, store))
	require.NoError(t, h.LoadInitial(context.Background()))

	// Given: a refresh that has read W10 without a summary and is paused
	reached, release := store.holdSummary(week10)
	done := make(chan error, 1)
	go func() { done <- h.Refresh(context.Background()) }()
	<-reached

	// When: a summary is generated and the refresh then completes
	res := h.GenerateSummary(context.Background(), "2025-W10")
	require.True(t, res.OK)
	release()
	require.NoError(t, <-done)

	// Then: the generated summary is still shown
	week, ok := h.Week("2025-W10")
	require.True(t, ok)
	assert.Equal(t, summarize.StateSuccess, week.SummaryState)
	require.NotNil(t, week.Summary)
	assert.Equal(t, "Weekly recap", week.Summary.Content)
}

func TestRefresh_DoesNotRestoreWeekRemovedDuringFetch(t *testing.T) {
	store := newFakeStore()
	entry := store.add("fix bug", march(5, 9, 0))
	store.add("today", march(12, 9, 0))
	h := newTestHistory(t, store, &fakeSummarizer{})
	require.NoError(t, h.LoadInitial(context.Background()))

	reached, release := store.holdSummary(week10)
	done := make(chan error, 1)
	go func() { done <- h.Refresh(context.Background()) }()
	<-reached

	// When: the only W10 entry is deleted while the refresh is paused
	h.RequestDelete(DeleteTarget{Kind: DeleteEntry, WeekKey: "2025-W10", ID: entry.ID})
	require.NoError(t, h.ConfirmDelete(context.Background()))
	release()
	require.NoError(t, <-done)

	// Then: the stale read does not bring the week back
	assert.Equal(t, []string{"2025-W11"}, weekKeys(h.Weeks()))
}

func TestSaveEntry_KeepsSummaryGeneratedDuringReload(t *testing.T) {
	store := newFakeStore()
	entry := store.add("fix bug", march(5, 9, 0))
	h := newTestHistory(t, store, newRecapMachine(t, store))
	require.NoError(t, h.LoadInitial(context.Background()))
	require.True(t, h.BeginEdit("2025-W10", entry.ID))
	require.True(t, h.SetDraft("2025-W10", entry.ID, "fix login bug"))

	// Given: the save's week reload has read no summary and is paused
	reached, release := store.holdSummary(week10)
	done := make(chan error, 1)
	go func() { done <- h.SaveEntry(context.Background(), "2025-W10", entry.ID) }()
	<-reached

	res := h.GenerateSummary(context.Background(), "2025-W10")
	require.True(t, res.OK)
	release()
	require.NoError(t, <-done)

	// Then: both the edit and the summary are shown
	week, _ := h.Week("2025-W10")
	assert.Equal(t, summarize.StateSuccess, week.SummaryState)
	require.NotNil(t, week.Summary)
	assert.Equal(t, "Weekly recap", week.Summary.Content)
	e := week.FindEntry(entry.ID)
	require.NotNil(t, e)
	assert.Equal(t, "fix login bug", e.Content)
	assert.False(t, e.IsEditing)
}
