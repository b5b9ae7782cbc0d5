package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/asana-dump/internal/export"
	"github.com/joescharf/asana-dump/internal/models"
)

var (
	exportRaw       bool
	exportRemarks   bool
	exportNoHistory bool
)

var exportCmd = &cobra.Command{
	Use:   "export <output-file>",
	Short: "Export all unarchived projects to a CSV file",
	Long: `Export every unarchived project visible to the token as one CSV row.

Running 'asana-dump <output-file>' is the same as 'asana-dump export <output-file>'.

The file is only created once the token has been verified. If the
traversal fails later, the rows written so far are kept and the command
exits non-zero.`,
	Args: requireOutputArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context(), args[0])
	},
}

func init() {
	addExportFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func addExportFlags(c *cobra.Command) {
	c.Flags().BoolVar(&exportRaw, "raw", false, "Write cells without escaping embedded quotes (legacy format)")
	c.Flags().BoolVar(&exportRemarks, "remarks", false, "Append an empty Remarks cell to every row")
	c.Flags().BoolVar(&exportNoHistory, "no-history", false, "Do not record this run in the history database")
}

func requireOutputArg(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return fmt.Errorf("usage: %s <output file>", cmd.CommandPath())
	case len(args) > 1:
		return fmt.Errorf("expected a single output file, got %d arguments", len(args))
	}
	return nil
}

func exportRun(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would export projects to %s", path)
		return nil
	}

	e := export.New(export.Config{
		API:     client,
		Logger:  logger,
		Raw:     exportRaw || viper.GetBool("export.raw"),
		Remarks: exportRemarks || viper.GetBool("export.remarks"),
	})

	run, res := e.RunRecorded(ctx, path, historyStore())
	if run.ID != "" {
		ui.VerboseLog("Recorded run %s", run.ID)
	}

	switch res.Outcome {
	case models.RunOutcomeSuccess:
		ui.Success("Exported %d projects to %s", res.Rows, path)
		return nil
	case models.RunOutcomePartial:
		ui.Warning("%s is incomplete: %d projects written before the failure", path, res.Rows)
		return fmt.Errorf("export aborted: %w", res.Err)
	default:
		return fmt.Errorf("export failed: %w", res.Err)
	}
}
