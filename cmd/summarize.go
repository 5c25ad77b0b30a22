package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/summarize"
)

var summarizeMetricsFile string

var summarizeCmd = &cobra.Command{
	Use:   "summarize [week-key]",
	Short: "Generate the AI summary of a finished week",
	Long: `Generate and save the summary of an ISO week (YYYY-Www, default: last week).
The week must be over, must have entries and must not have a summary yet.
Requires an access token (see: worklog login).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeMetricsFile, "metrics-file", "", "Write prometheus metrics to this file")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	week := calendar.WeekOf(nowFunc()).Prev()
	if len(args) == 1 {
		w, err := calendar.ParseKey(args[0])
		if err != nil {
			return err
		}
		week = w
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	machine, err := a.newMachine()
	if err != nil {
		return err
	}
	res := machine.Generate(cmd.Context(), week)

	if err := a.writeMetrics(summarizeMetricsFile); err != nil {
		return err
	}

	if res.State != summarize.StateSuccess {
		return fmt.Errorf("could not summarize %s: %s", week.Key(), failureText(res))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Summary for %s (%s)\n\n%s\n", week.Label(), week.Key(), res.Summary.Content)
	return nil
}

// failureText explains a non-success result in CLI terms
func failureText(res summarize.Result) string {
	switch res.State {
	case summarize.StateUnauthorized:
		return "not signed in, run: worklog login"
	case summarize.StateLimitReached:
		return "generation limit reached, try again later"
	case summarize.StateUnsupported:
		return "summaries are not supported for this week"
	case summarize.StateAlreadyExists:
		return "a summary already exists, see: worklog weeks"
	}
	if res.Message != "" {
		return res.Message
	}
	return string(res.State)
}
