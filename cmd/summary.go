package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/db"
	"github.com/chris/worklog/pkg/models"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show, edit or delete a week's saved summary",
}

var summaryShowCmd = &cobra.Command{
	Use:   "show <week-key>",
	Short: "Print the saved summary of a week",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummaryShow,
}

var summaryEditCmd = &cobra.Command{
	Use:   "edit <week-key> <content...>",
	Short: "Replace the content of a week's summary",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSummaryEdit,
}

var summaryDeleteCmd = &cobra.Command{
	Use:   "delete <week-key>",
	Short: "Delete a week's summary so it can be generated again",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummaryDelete,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.AddCommand(summaryShowCmd, summaryEditCmd, summaryDeleteCmd)
}

// weekSummary resolves a week key to its saved summary
func weekSummary(ctx context.Context, database *db.DB, key string) (calendar.Week, *models.Summary, error) {
	w, err := calendar.ParseKey(key)
	if err != nil {
		return calendar.Week{}, nil, err
	}
	s, err := database.SummaryForWeek(ctx, w.Year, w.Number)
	if err != nil {
		return w, nil, fmt.Errorf("failed to read summary: %w", err)
	}
	if s == nil {
		return w, nil, fmt.Errorf("no summary for %s: %w", w.Key(), models.ErrNotFound)
	}
	return w, s, nil
}

func runSummaryShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, s, err := weekSummary(cmd.Context(), a.db, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Summary for %s (%s)\n\n%s\n", w.Label(), w.Key(), s.Content)
	return nil
}

func runSummaryEdit(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		return models.ErrEmptyContent
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, s, err := weekSummary(cmd.Context(), a.db, args[0])
	if err != nil {
		return err
	}
	if err := a.db.UpdateSummary(cmd.Context(), s.ID, content); err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated summary for %s\n", w.Key())
	return nil
}

func runSummaryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, s, err := weekSummary(cmd.Context(), a.db, args[0])
	if err != nil {
		return err
	}
	if err := a.db.DeleteSummary(cmd.Context(), s.ID); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted summary for %s\n", w.Key())
	return nil
}
