package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/chris/worklog/internal/summarize"
)

const lineWidth = 80

// Styles for week output
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true) // bright-magenta
	dayStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // bright-blue
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // bright-black
	contentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))            // white
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // bright-green
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // bright-cyan
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // bright-yellow
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // bright-red
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // bright-black
)

// RenderOptions controls text rendering of weeks
type RenderOptions struct {
	NoColor   bool
	ExpandAll bool // show every entry of every duplicate group
	HasMore   bool // print a hint that older weeks exist
}

func renderStyle(style lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

// Render formats weeks as human-readable text, newest first
func Render(weeks []WeekGroup, opts RenderOptions) string {
	var output strings.Builder

	if len(weeks) == 0 {
		output.WriteString(renderStyle(dayStyle, "No entries found", opts.NoColor) + "\n")
		return output.String()
	}

	for i := range weeks {
		RenderWeek(&output, &weeks[i], opts)
	}

	if opts.HasMore {
		output.WriteString(renderStyle(separatorStyle, "Older weeks available, use --weeks to show more", opts.NoColor) + "\n")
	}

	return output.String()
}

// RenderWeek writes one week's header, summary card and days
func RenderWeek(output *strings.Builder, w *WeekGroup, opts RenderOptions) {
	title := fmt.Sprintf("%s (%s)", w.Label, w.Key)
	separator := renderStyle(separatorStyle, strings.Repeat("=", max(lineWidth/2-ansi.StringWidth(title)/2-1, 0)), opts.NoColor)
	fmt.Fprintf(output, "\n%s %s %s\n", separator, renderStyle(headerStyle, title, opts.NoColor), separator)

	if w.Collapsed {
		fmt.Fprintf(output, "  %s\n", renderStyle(separatorStyle, pluralEntries(w.TotalEntries)+", collapsed", opts.NoColor))
		return
	}

	output.WriteString(SummaryLine(w, opts.NoColor) + "\n")

	for _, day := range w.Days {
		label := dayLabel(day.Date)
		count := pluralEntries(day.TotalEntries)
		dashes := max(lineWidth-2-ansi.StringWidth(label)-ansi.StringWidth(count)-2, 3)
		fmt.Fprintf(output, "\n  %s %s %s\n",
			renderStyle(dayStyle, label, opts.NoColor),
			renderStyle(separatorStyle, strings.Repeat("-", dashes), opts.NoColor),
			renderStyle(separatorStyle, count, opts.NoColor))

		for _, item := range day.Items {
			if item.Group != nil {
				renderGroup(output, item.Group, opts)
				continue
			}
			renderEntry(output, item.Entry, "    ", opts)
		}
	}
}

func renderGroup(output *strings.Builder, g *DuplicateGroup, opts RenderOptions) {
	latest := g.Entries[len(g.Entries)-1]
	fmt.Fprintf(output, "    %s  %s %s\n",
		renderStyle(timestampStyle, latest.CreatedAt.In(time.Local).Format("15:04"), opts.NoColor),
		renderStyle(contentStyle, firstLine(g.Content), opts.NoColor),
		renderStyle(badgeStyle, fmt.Sprintf("(×%d)", g.Count), opts.NoColor))

	if !g.Expanded && !opts.ExpandAll {
		return
	}
	// Newest first, matching the day
	for i := len(g.Entries) - 1; i >= 0; i-- {
		renderEntry(output, &g.Entries[i], "      ", opts)
	}
}

func renderEntry(output *strings.Builder, e *EntryView, indent string, opts RenderOptions) {
	text := e.Content
	if e.IsEditing && e.DraftContent != nil {
		text = *e.DraftContent + " ✎"
	}
	fmt.Fprintf(output, "%s%s  %s\n",
		indent,
		renderStyle(timestampStyle, e.CreatedAt.In(time.Local).Format("15:04"), opts.NoColor),
		renderStyle(contentStyle, firstLine(text), opts.NoColor))
}

// SummaryLine describes a week's summary card for its current state
func SummaryLine(w *WeekGroup, noColor bool) string {
	switch w.SummaryState {
	case summarize.StateSuccess:
		if w.Summary != nil {
			return "  " + renderStyle(summaryStyle, "Summary: ", noColor) + w.Summary.Content
		}
		return "  " + renderStyle(summaryStyle, "Summary: generated", noColor)
	case summarize.StateGenerating:
		return "  " + renderStyle(warnStyle, "Summary: generating...", noColor)
	case summarize.StateUnauthorized:
		return "  " + renderStyle(warnStyle, "Summary: sign in to generate (worklog login)", noColor)
	case summarize.StateLimitReached:
		return "  " + renderStyle(warnStyle, "Summary: generation limit reached, try again later", noColor)
	case summarize.StateUnsupported:
		return "  " + renderStyle(warnStyle, "Summary: not supported for this week", noColor)
	case summarize.StateAlreadyExists:
		return "  " + renderStyle(warnStyle, "Summary: already exists, refresh to show it", noColor)
	case summarize.StateFailed:
		msg := "Summary failed"
		if w.SummaryMessage != "" {
			msg += ": " + w.SummaryMessage
		}
		return "  " + renderStyle(errorStyle, msg, noColor)
	}
	return "  " + renderStyle(separatorStyle, "Summary: not generated", noColor)
}

func dayLabel(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("Mon Jan 2")
}

func pluralEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func firstLine(s string) string {
	if first, _, ok := strings.Cut(s, "\n"); ok {
		return first + " ↵"
	}
	return s
}
