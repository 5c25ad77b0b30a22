package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/history"
)

var (
	weeksCount       int
	weeksFrom        string
	weeksExpand      bool
	weeksMetricsFile string
)

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "Show journal entries grouped by week",
	Long:  "Display recent ISO weeks newest first, entries grouped by day with repeated entries compressed into badges",
	Args:  cobra.NoArgs,
	RunE:  runWeeks,
}

func init() {
	rootCmd.AddCommand(weeksCmd)

	weeksCmd.Flags().IntVar(&weeksCount, "weeks", 0, "Number of weeks to walk back (default: history.page_size)")
	weeksCmd.Flags().StringVar(&weeksFrom, "from", "", "Newest week to show, as YYYY-Www (default: current week)")
	weeksCmd.Flags().BoolVar(&weeksExpand, "expand", false, "List every entry of repeated runs")
	weeksCmd.Flags().StringVar(&weeksMetricsFile, "metrics-file", "", "Write prometheus metrics to this file")
}

func runWeeks(cmd *cobra.Command, args []string) error {
	var from *calendar.Week
	if weeksFrom != "" {
		w, err := calendar.ParseKey(weeksFrom)
		if err != nil {
			return err
		}
		from = &w
	}
	if weeksCount < 0 {
		return fmt.Errorf("--weeks must not be negative, got %d", weeksCount)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	count := weeksCount
	if count == 0 {
		count = a.cfg.History.PageSize
	}

	loader, err := a.newLoader()
	if err != nil {
		return err
	}
	page := loader.LoadWeeks(cmd.Context(), from, count)

	for _, f := range page.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
	}
	if page.AllFailed() {
		errs := make([]error, len(page.Failures))
		for i, f := range page.Failures {
			errs[i] = f
		}
		return fmt.Errorf("could not load any week: %w", errors.Join(errs...))
	}

	// Check if output is a TTY to determine if we should use colors
	opts := history.RenderOptions{
		NoColor:   !isTerminal(cmd.OutOrStdout()),
		ExpandAll: weeksExpand,
		HasMore:   page.HasMore,
	}
	fmt.Fprint(cmd.OutOrStdout(), history.Render(history.TransformWeeks(page.Weeks), opts))

	return a.writeMetrics(weeksMetricsFile)
}

// isTerminal returns true if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
