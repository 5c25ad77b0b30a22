package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// WorklogVersion is the current version of worklog
const WorklogVersion = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of worklog",
	Long:  "Print the version number of worklog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worklog version %s\n", WorklogVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
