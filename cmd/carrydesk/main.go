package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/carrydesk/carrydesk/internal/interfaces/cli/migrate"
	"github.com/carrydesk/carrydesk/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carrydesk",
		Short: "CarryDesk - support ticket and helper store",
		Long:  `CarryDesk keeps support tickets, helper vouches and daily request quotas for the community bot.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
