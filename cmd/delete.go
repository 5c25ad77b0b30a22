package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [entry-ids...]",
	Short: "Delete entries from the journal by ID",
	Long:  "Delete one or more entries from the journal by their IDs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	// Parse positional args as int64 entry IDs
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	count := 0
	for _, id := range ids {
		if err := a.db.DeleteEntry(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete entry %d after deleting %d: %w", id, count, err)
		}
		count++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entry(s)\n", count)
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry ID %q: %w", arg, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid entry ID %q: must be a positive integer", arg)
	}
	return id, nil
}
