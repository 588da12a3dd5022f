package plugin

import (
	"os"

	"github.com/spf13/cobra"

	"antware.xyz/authgate/internal/plugin/commands"
)

var rootCmd = &cobra.Command{
	Use:          "kubectl-authgate",
	Short:        "Query and inspect authgate authorization policy",
	SilenceUsage: true,
}

func Execute() {
	rootCmd.AddCommand(commands.NewCanICmd())
	rootCmd.AddCommand(commands.NewPermissionsCmd())
	rootCmd.AddCommand(commands.NewGetCmd())
	rootCmd.AddCommand(commands.NewValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
