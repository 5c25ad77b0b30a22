package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris/worklog/pkg/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <entry-id> <content...>",
	Short: "Replace the content of an entry",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		return models.ErrEmptyContent
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.db.UpdateEntry(cmd.Context(), id, content); err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %d\n", id)
	return nil
}
