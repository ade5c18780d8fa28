package commands

import (
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Print(cmd.OutOrStdout())
			return nil
		},
	}
	return cmd
}
