package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/history"
)

// Styles
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	focusDotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	blurDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dayStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	countStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

const marginX = 2

func (m *Model) renderView() string {
	var b strings.Builder

	width := m.width
	if width == 0 {
		width = 80
	}

	// Content width excludes left and right margins
	contentWidth := max(width-2*marginX, 20)
	margin := strings.Repeat(" ", marginX)

	// Header
	b.WriteString(margin + m.renderHeader())
	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("=", contentWidth)))
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(m.renderHelp(margin))
		return b.String()
	}

	// Week list
	if m.weeks == nil {
		b.WriteString(margin + "Loading...\n")
	} else if len(m.rows) == 0 {
		b.WriteString(margin + "No entries found\n")
	} else {
		end := len(m.rows)
		if m.height > 0 {
			end = min(end, m.scrollOffset+max(m.height-6, 1))
		}
		for i := m.scrollOffset; i < end; i++ {
			b.WriteString(margin + m.renderRow(m.rows[i], i == m.selectedIdx, contentWidth))
			b.WriteString("\n")
		}
	}

	if p := m.history.Pagination(); p.HasMore && len(m.rows) > 0 {
		b.WriteString(margin + countStyle.Render("[m] load older weeks") + "\n")
	}

	// Prompt and notifications
	if target, ok := m.history.DeletePrompt(); ok {
		b.WriteString("\n" + margin + promptStyle.Render(fmt.Sprintf("Delete %s? [y/n]", target.Kind)) + "\n")
	}
	for _, n := range m.history.Notifications() {
		b.WriteString(margin + renderNotification(n) + "\n")
	}

	// Status bar
	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("─", contentWidth)))
	b.WriteString("\n")
	b.WriteString(margin + m.renderStatusBar())

	return b.String()
}

func (m *Model) renderHeader() string {
	dot := focusDotStyle.Render("●")
	if !m.focused {
		dot = blurDotStyle.Render("○")
	}

	p := m.history.Pagination()
	status := fmt.Sprintf("%d weeks", len(m.weeks))
	if p.Loading {
		status = "loading..."
	}
	return headerStyle.Render("Worklog") + " " + dot + " " + countStyle.Render(status)
}

func (m *Model) renderRow(r Row, selected bool, width int) string {
	w := m.week(r.WeekKey)
	if w == nil {
		return ""
	}

	prefix := "  "
	if selected {
		prefix = "▶ "
	}

	var line string
	switch r.Kind {
	case WeekRow:
		arrow := "▾"
		if w.Collapsed {
			arrow = "▸"
		}
		title := fmt.Sprintf("%s %s (%s)", arrow, w.Label, w.Key)
		count := entriesText(w.TotalEntries)
		padding := max(width-ansi.StringWidth(prefix)-ansi.StringWidth(title)-ansi.StringWidth(count), 1)
		line = prefix + headerStyle.Render(title) + strings.Repeat(" ", padding) + countStyle.Render(count)
		return line

	case SummaryRow:
		line = prefix + strings.TrimLeft(history.SummaryLine(w, false), " ")
		return truncateWithEllipsis(line, width)

	case DayRow:
		return "  " + dayStyle.Render(dayLabel(r.Date))

	case GroupRow:
		g := w.FindGroup(r.GroupID)
		if g == nil {
			return ""
		}
		arrow := "+"
		if g.Expanded {
			arrow = "-"
		}
		text := truncateWithEllipsis(firstLine(g.Content), width-16)
		line = fmt.Sprintf("%s  %s %s %s", prefix, arrow, text, badgeStyle.Render(fmt.Sprintf("(×%d)", g.Count)))

	case EntryRow, MemberRow:
		e := w.FindEntry(r.EntryID)
		if e == nil {
			return ""
		}
		indent := "  "
		if r.Kind == MemberRow {
			indent = "      "
		}
		text := firstLine(e.Content)
		if e.IsEditing && e.DraftContent != nil {
			text = *e.DraftContent + "▏"
		}
		text = truncateWithEllipsis(text, width-len(indent)-10)
		line = fmt.Sprintf("%s%s%s  %s", prefix, indent, countStyle.Render(e.CreatedAt.Format("15:04")), text)
	}

	if selected {
		return selectedStyle.Render(line)
	}
	return normalStyle.Render(line)
}

func renderNotification(n history.Notification) string {
	switch n.Level {
	case history.LevelError:
		return errorStyle.Render("✗ " + n.Message)
	case history.LevelSuccess:
		return successStyle.Render("✓ " + n.Message)
	}
	return infoStyle.Render("• " + n.Message)
}

func (m *Model) renderHelp(margin string) string {
	var b strings.Builder
	for _, binding := range bindingsForMode(m.mode()) {
		fmt.Fprintf(&b, "%s%s  %s\n", margin, selectedStyle.Render(fmt.Sprintf("%-6s", binding.key)), binding.desc)
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	switch m.mode() {
	case EditMode:
		return statusBarStyle.Render("[Enter] Save  [Esc] Cancel")
	case PromptMode:
		return statusBarStyle.Render("[y] Delete  [n] Keep")
	}
	if m.lastErr != nil {
		return errorStyle.Render(m.lastErr.Error())
	}
	return statusBarStyle.Render("[j/k] Select  [Enter] Toggle  [g] Summarize  [e] Edit  [d] Delete  [m] More  [?] Help  [q] Quit")
}

func entriesText(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func dayLabel(date string) string {
	t, err := time.Parse(calendar.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, Jan 2")
}

func firstLine(s string) string {
	if first, _, ok := strings.Cut(s, "\n"); ok {
		return first + " ↵"
	}
	return s
}

// truncateWithEllipsis truncates a string to maxWidth, adding … if truncated
func truncateWithEllipsis(s string, maxWidth int) string {
	maxWidth = max(maxWidth, 10)
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	// Truncate to maxWidth-1 to leave room for …
	truncated := ansi.Truncate(s, maxWidth-1, "")
	return truncated + "…"
}
