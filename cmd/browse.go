package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chris/worklog/internal/tui"
)

var browseMetricsFile string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse weeks interactively",
	Long:  "Open the interactive week browser: collapse weeks, expand repeated entries, edit and delete entries, generate summaries",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseMetricsFile, "metrics-file", "", "Write prometheus metrics to this file on exit")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.newHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	model := tui.New(h, tui.WithContext(cmd.Context()))
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	return a.writeMetrics(browseMetricsFile)
}
