package cmd

import (
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the Asana user the token belongs to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return whoamiRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func whoamiRun(cmd *cobra.Command) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	me, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}
	ui.Info("Authenticated as %s (%s)", me.Name, me.GID)
	return nil
}
