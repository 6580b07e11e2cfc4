package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

// verbosity is shared by every subcommand through the persistent -v flag.
var verbosity int

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vulnfix",
		Short: "Apply vulnerability remediation upgrades to project manifests",
		Long: "vulnfix takes the remediation advice produced by a dependency scan and rewrites " +
			"Maven pom.xml files in place, changing only the version literals that need to move.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFixCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	verbosity = 0
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
