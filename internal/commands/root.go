// Package commands defines the cmpdrift CLI.
//
// Commands
//
//   - run        Drift carriers for every run of an input file and save the results
//   - settings   Print the settings taken from CMPDRIFT_* environment variables
package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/logging"
)

var (
	settings config.Settings
	log      zerolog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cmpdrift",
		Short:        "Charge carrier drift in a crystal with inter-valley scattering and boundary interactions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings()
			if err != nil {
				return err
			}
			settings = s
			log = logging.New(cmd.ErrOrStderr(), s.Verbose)
			return nil
		},
	}
	root.AddCommand(runCmd(), settingsCmd())
	return root
}

func Execute() error {
	root := newRootCmd()
	root.SetErr(os.Stderr)
	return root.Execute()
}
