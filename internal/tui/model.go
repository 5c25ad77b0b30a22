// Package tui is an interactive week browser over history.History
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris/worklog/internal/history"
	"github.com/chris/worklog/internal/summarize"
)

// RowKind says what a browser line shows
type RowKind int

const (
	WeekRow RowKind = iota
	SummaryRow
	DayRow
	EntryRow
	GroupRow
	MemberRow
)

// Row is one line of the browser. Day rows are labels and cannot be selected.
type Row struct {
	Kind    RowKind
	WeekKey string
	Date    string
	EntryID int64
	GroupID string
}

func (r Row) selectable() bool { return r.Kind != DayRow }

// Model represents the TUI state
type Model struct {
	history *history.History
	ctx     context.Context

	// Data
	weeks []history.WeekGroup
	rows  []Row

	// Selection
	selectedIdx  int
	scrollOffset int

	// Modes
	editing  *Row
	showHelp bool
	lastErr  error

	// UI dimensions
	width  int
	height int

	// Focus
	focused bool

	tickInterval time.Duration
}

// Option is a functional option for configuring the Model
type Option func(*Model)

// WithContext sets the context passed to history operations
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithTickInterval sets how often the view redraws to expire notifications
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) {
		m.tickInterval = d
	}
}

// New creates a new Model
func New(h *history.History, opts ...Option) *Model {
	m := &Model{
		history:      h,
		ctx:          context.Background(),
		focused:      true,
		tickInterval: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.loadInitial
}

func (m *Model) loadInitial() tea.Msg {
	return loadedMsg{err: m.history.LoadInitial(m.ctx)}
}

func (m *Model) loadMore() tea.Msg {
	return loadedMsg{err: m.history.LoadMore(m.ctx)}
}

func (m *Model) refresh() tea.Msg {
	return loadedMsg{err: m.history.Refresh(m.ctx)}
}

func (m *Model) tick() tea.Cmd {
	if m.tickInterval <= 0 {
		return nil
	}
	return tea.Tick(m.tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, nil

	case loadedMsg:
		first := m.weeks == nil
		m.lastErr = msg.err
		m.sync()
		if first {
			return m, m.tick()
		}
		return m, nil

	case opDoneMsg:
		m.lastErr = msg.err
		m.editing = msg.edit
		m.sync()
		return m, nil

	case generatedMsg:
		m.sync()
		return m, nil

	case tickMsg:
		// Shows state set by commands still running
		m.sync()
		return m, m.tick()

	case yankResultMsg:
		if msg.err != nil {
			m.history.Notify(history.LevelError, "Could not copy to clipboard")
		} else {
			m.history.Notify(history.LevelInfo, "Copied to clipboard")
		}
		return m, nil
	}

	return m, nil
}

// sync re-reads the collection and rebuilds rows, keeping the selection on
// the same row when it still exists
func (m *Model) sync() {
	var current Row
	hadSelection := m.selectedIdx < len(m.rows)
	if hadSelection {
		current = m.rows[m.selectedIdx]
	}

	m.weeks = m.history.Weeks()
	if m.weeks == nil {
		m.weeks = []history.WeekGroup{}
	}
	m.rows = buildRows(m.weeks)

	m.selectedIdx = 0
	if hadSelection {
		for i, r := range m.rows {
			if r == current {
				m.selectedIdx = i
				break
			}
		}
	}
	m.clampSelection()
	m.ensureVisible()
}

// buildRows flattens weeks into browser lines
func buildRows(weeks []history.WeekGroup) []Row {
	var rows []Row
	for _, w := range weeks {
		rows = append(rows, Row{Kind: WeekRow, WeekKey: w.Key})
		if w.Collapsed {
			continue
		}
		rows = append(rows, Row{Kind: SummaryRow, WeekKey: w.Key})
		for _, day := range w.Days {
			rows = append(rows, Row{Kind: DayRow, WeekKey: w.Key, Date: day.Date})
			for _, item := range day.Items {
				if item.Entry != nil {
					rows = append(rows, Row{Kind: EntryRow, WeekKey: w.Key, Date: day.Date, EntryID: item.Entry.ID})
					continue
				}
				g := item.Group
				rows = append(rows, Row{Kind: GroupRow, WeekKey: w.Key, Date: day.Date, GroupID: g.ID})
				if g.Expanded {
					for i := len(g.Entries) - 1; i >= 0; i-- {
						rows = append(rows, Row{Kind: MemberRow, WeekKey: w.Key, Date: day.Date, GroupID: g.ID, EntryID: g.Entries[i].ID})
					}
				}
			}
		}
	}
	return rows
}

func (m *Model) clampSelection() {
	if len(m.rows) == 0 {
		m.selectedIdx = 0
		return
	}
	if m.selectedIdx >= len(m.rows) {
		m.selectedIdx = len(m.rows) - 1
	}
	if !m.rows[m.selectedIdx].selectable() {
		m.move(1)
	}
}

// move steps the selection by dir, skipping day labels
func (m *Model) move(dir int) {
	for i := m.selectedIdx + dir; i >= 0 && i < len(m.rows); i += dir {
		if m.rows[i].selectable() {
			m.selectedIdx = i
			m.ensureVisible()
			return
		}
	}
}

// ensureVisible adjusts scrollOffset to keep the selected row in view
func (m *Model) ensureVisible() {
	if m.height == 0 || len(m.rows) == 0 {
		return
	}
	avail := max(m.height-6, 1)
	if m.selectedIdx < m.scrollOffset {
		m.scrollOffset = m.selectedIdx
		// Show the day label above the first entry of a day
		if m.scrollOffset > 0 && m.rows[m.scrollOffset-1].Kind == DayRow {
			m.scrollOffset--
		}
	}
	if m.selectedIdx >= m.scrollOffset+avail {
		m.scrollOffset = m.selectedIdx - avail + 1
	}
}

func (m *Model) selected() (Row, bool) {
	if m.selectedIdx < len(m.rows) {
		return m.rows[m.selectedIdx], true
	}
	return Row{}, false
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if m.editing != nil {
		return m.handleEditKey(msg)
	}
	if _, ok := m.history.DeletePrompt(); ok {
		return m.handlePromptKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	row, hasRow := m.selected()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "j", "down":
		m.move(1)
		return m, nil

	case "k", "up":
		m.move(-1)
		return m, nil

	case "enter", " ":
		if !hasRow {
			return m, nil
		}
		switch row.Kind {
		case WeekRow, SummaryRow:
			m.history.ToggleWeekCollapsed(row.WeekKey)
		case GroupRow, MemberRow:
			m.history.ToggleDuplicateGroup(row.WeekKey, row.GroupID)
			if row.Kind == MemberRow {
				row = Row{Kind: GroupRow, WeekKey: row.WeekKey, Date: row.Date, GroupID: row.GroupID}
			}
		}
		m.sync()
		m.selectRow(row)
		return m, nil

	case "m":
		return m, m.loadMore

	case "r":
		return m, m.refresh

	case "g":
		if !hasRow {
			return m, nil
		}
		key := row.WeekKey
		return m, func() tea.Msg {
			return generatedMsg{result: m.history.GenerateSummary(m.ctx, key)}
		}

	case "e":
		if hasRow && (row.Kind == EntryRow || row.Kind == MemberRow) {
			if m.history.BeginEdit(row.WeekKey, row.EntryID) {
				m.editing = &row
				m.sync()
			}
		}
		return m, nil

	case "d":
		if hasRow && (row.Kind == EntryRow || row.Kind == MemberRow) {
			m.history.RequestDelete(history.DeleteTarget{Kind: history.DeleteEntry, WeekKey: row.WeekKey, ID: row.EntryID})
		}
		return m, nil

	case "D":
		if !hasRow {
			return m, nil
		}
		if w := m.week(row.WeekKey); w != nil && w.Summary != nil {
			m.history.RequestDelete(history.DeleteTarget{Kind: history.DeleteSummary, WeekKey: row.WeekKey, ID: w.Summary.ID})
		}
		return m, nil

	case "y":
		if text := m.rowText(row); hasRow && text != "" {
			return m, yankToClipboard(text)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return m, func() tea.Msg {
			return opDoneMsg{err: m.history.ConfirmDelete(m.ctx)}
		}
	case "n", "N", "esc", "q":
		m.history.CancelDelete()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	target := *m.editing

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.history.CancelEdit(target.WeekKey, target.EntryID)
		m.editing = nil
		m.sync()
		return m, nil

	case tea.KeyEnter:
		m.editing = nil
		return m, func() tea.Msg {
			if err := m.history.SaveEntry(m.ctx, target.WeekKey, target.EntryID); err != nil {
				// Stay in edit mode with the draft
				return opDoneMsg{err: err, edit: &target}
			}
			return opDoneMsg{}
		}

	case tea.KeyBackspace:
		draft := []rune(m.draft(target))
		if len(draft) > 0 {
			m.history.SetDraft(target.WeekKey, target.EntryID, string(draft[:len(draft)-1]))
			m.sync()
		}
		return m, nil

	case tea.KeySpace:
		m.history.SetDraft(target.WeekKey, target.EntryID, m.draft(target)+" ")
		m.sync()
		return m, nil

	case tea.KeyRunes:
		m.history.SetDraft(target.WeekKey, target.EntryID, m.draft(target)+string(msg.Runes))
		m.sync()
		return m, nil
	}

	return m, nil
}

func (m *Model) selectRow(r Row) {
	for i, row := range m.rows {
		if row == r {
			m.selectedIdx = i
			m.ensureVisible()
			return
		}
	}
}

func (m *Model) week(key string) *history.WeekGroup {
	for i := range m.weeks {
		if m.weeks[i].Key == key {
			return &m.weeks[i]
		}
	}
	return nil
}

func (m *Model) entry(r Row) *history.EntryView {
	if w := m.week(r.WeekKey); w != nil {
		return w.FindEntry(r.EntryID)
	}
	return nil
}

func (m *Model) draft(r Row) string {
	if e := m.entry(r); e != nil && e.DraftContent != nil {
		return *e.DraftContent
	}
	return ""
}

// rowText is what y copies for a row
func (m *Model) rowText(r Row) string {
	w := m.week(r.WeekKey)
	if w == nil {
		return ""
	}
	switch r.Kind {
	case SummaryRow:
		if w.Summary != nil {
			return w.Summary.Content
		}
	case GroupRow:
		if g := w.FindGroup(r.GroupID); g != nil {
			return g.Content
		}
	case EntryRow, MemberRow:
		if e := w.FindEntry(r.EntryID); e != nil {
			return e.Content
		}
	}
	return ""
}

// View implements tea.Model
func (m *Model) View() string {
	return m.renderView()
}

// Messages
type loadedMsg struct {
	err error
}

type opDoneMsg struct {
	err  error
	edit *Row // entry to return to edit mode
}

type generatedMsg struct {
	result summarize.Result
}

type tickMsg struct{}

// Getters for testing
func (m *Model) SelectedIdx() int {
	return m.selectedIdx
}

func (m *Model) Rows() []Row {
	return m.rows
}

func (m *Model) Weeks() []history.WeekGroup {
	return m.weeks
}

func (m *Model) Editing() bool {
	return m.editing != nil
}

func (m *Model) Focused() bool {
	return m.focused
}

func (m *Model) LastErr() error {
	return m.lastErr
}
