package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

func renderFixture() WeekGroup {
	return TransformWeek(rawWeek(week10,
		entryAt(1, "fix bug", 5, 9, 0),
		entryAt(2, "fix bug", 5, 9, 30),
		entryAt(3, "standup", 5, 10, 0),
		entryAt(4, "planning", 3, 14, 0),
	))
}

func TestRender_WeekWithDuplicates(t *testing.T) {
	// Given: a week with a duplicate run
	week := renderFixture()

	// When: rendering without color
	output := Render([]WeekGroup{week}, RenderOptions{NoColor: true})

	// Then: header shows label and key
	assert.Contains(t, output, "Mar 3 - 9, 2025 (2025-W10)")

	// And: days are newest first with counts
	wed := strings.Index(output, "Wed Mar 5")
	mon := strings.Index(output, "Mon Mar 3")
	assert.Greater(t, mon, wed)
	assert.Contains(t, output, "3 entries")
	assert.Contains(t, output, "1 entry")

	// And: the run shows once with its badge, timed at its latest entry
	assert.Contains(t, output, "09:30  fix bug (×2)")
	assert.Equal(t, 1, strings.Count(output, "fix bug"))
	assert.Contains(t, output, "10:00  standup")

	// And: no summary yet
	assert.Contains(t, output, "Summary: not generated")
}

func TestRender_ExpandedGroupListsMembers(t *testing.T) {
	week := renderFixture()

	output := Render([]WeekGroup{week}, RenderOptions{NoColor: true, ExpandAll: true})

	assert.Equal(t, 3, strings.Count(output, "fix bug"))
	assert.Contains(t, output, "      09:00  fix bug")
}

func TestRender_CollapsedWeek(t *testing.T) {
	week := renderFixture()
	week.Collapsed = true

	output := Render([]WeekGroup{week}, RenderOptions{NoColor: true})

	assert.Contains(t, output, "4 entries, collapsed")
	assert.NotContains(t, output, "standup")
}

func TestRender_Empty(t *testing.T) {
	output := Render(nil, RenderOptions{NoColor: true})

	assert.Equal(t, "No entries found\n", output)
}

func TestRender_MoreHint(t *testing.T) {
	output := Render([]WeekGroup{renderFixture()}, RenderOptions{NoColor: true, HasMore: true})

	assert.Contains(t, output, "Older weeks available")
}

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		state   summarize.CardState
		summary *models.Summary
		message string
		want    string
	}{
		{summarize.StatePending, nil, "", "Summary: not generated"},
		{summarize.StateGenerating, nil, "", "Summary: generating..."},
		{summarize.StateSuccess, &models.Summary{Content: "Weekly recap"}, "", "Summary: Weekly recap"},
		{summarize.StateFailed, nil, "provider down", "Summary failed: provider down"},
		{summarize.StateUnauthorized, nil, "", "worklog login"},
		{summarize.StateLimitReached, nil, "", "limit reached"},
		{summarize.StateUnsupported, nil, "", "not supported"},
		{summarize.StateAlreadyExists, nil, "", "already exists"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			w := &WeekGroup{SummaryState: tt.state, Summary: tt.summary, SummaryMessage: tt.message}
			assert.Contains(t, SummaryLine(w, true), tt.want)
		})
	}
}
