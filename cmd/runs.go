package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/asana-dump/internal/models"
	"github.com/joescharf/asana-dump/internal/output"
)

var (
	runsLimit int
	runsKeep  int
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"history"},
	Short:   "Show export history",
	Long: `Show previous exports recorded in the history database.

Running bare 'asana-dump runs' is the same as 'asana-dump runs list'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsListRun()
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent exports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsListRun()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one export run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsShowRun(args[0])
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsPruneRun()
	},
}

func init() {
	runsCmd.PersistentFlags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
	runsPruneCmd.Flags().IntVar(&runsKeep, "keep", 50, "Number of most recent runs to keep")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsPruneCmd)
	rootCmd.AddCommand(runsCmd)
}

func runsListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListExportRuns(context.Background(), runsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		ui.Info("No exports recorded yet. Run 'asana-dump <output-file>' to create one.")
		return nil
	}

	table := ui.Table([]string{"ID", "Started", "Outcome", "Rows", "User", "Output"})
	for _, r := range runs {
		table.Append([]string{
			output.Cyan(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			output.OutcomeColor(string(r.Outcome)),
			strconv.Itoa(r.Rows),
			r.UserName,
			r.OutputPath,
		})
	}
	return table.Render()
}

func runsShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	r, err := s.GetExportRun(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "ID:       %s\n", output.Cyan(r.ID))
	fmt.Fprintf(ui.Out, "Output:   %s\n", r.OutputPath)
	fmt.Fprintf(ui.Out, "User:     %s\n", r.UserName)
	fmt.Fprintf(ui.Out, "Outcome:  %s\n", output.OutcomeColor(string(r.Outcome)))
	fmt.Fprintf(ui.Out, "Rows:     %d\n", r.Rows)
	fmt.Fprintf(ui.Out, "Started:  %s\n", r.StartedAt.Local().Format(time.RFC3339))
	if r.FinishedAt != nil {
		fmt.Fprintf(ui.Out, "Finished: %s (%s)\n", r.FinishedAt.Local().Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if r.Error != "" {
		fmt.Fprintf(ui.Out, "Error:    %s\n", output.Red(r.Error))
	}
	if r.Outcome == models.RunOutcomePartial {
		ui.Warning("The output file of this run is incomplete")
	}
	return nil
}

func runsPruneRun() error {
	if runsKeep < 0 {
		return fmt.Errorf("--keep must be >= 0")
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete all but the %d most recent runs", runsKeep)
		return nil
	}

	n, err := s.PruneExportRuns(context.Background(), runsKeep)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d runs", n)
	return nil
}
