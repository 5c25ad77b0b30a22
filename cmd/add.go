package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/pkg/models"
)

var addAt string

var addCmd = &cobra.Command{
	Use:   "add <content...>",
	Short: "Add an entry to the journal",
	Long:  "Add a work entry stamped now, or at the time given with --at",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addAt, "at", "", "Entry time (YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC3339; default: now)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return models.ErrEmptyContent
	}

	at := nowFunc()
	if addAt != "" {
		parsed, err := parseEntryTime(addAt)
		if err != nil {
			return err
		}
		at = parsed
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.db.InsertEntry(cmd.Context(), models.NewEntry(content, at))
	if err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d to %s\n", id, calendar.WeekOf(at).Key())
	return nil
}

var entryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	calendar.DateLayout,
}

// parseEntryTime reads a user-supplied time in the local zone
func parseEntryTime(s string) (time.Time, error) {
	for _, layout := range entryTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC3339", s)
}
