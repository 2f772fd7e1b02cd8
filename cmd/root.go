package cmd

import (
	"fmt"

	"raffler/database"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the raffler CLI. Without a subcommand it serves the raffle.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "raffler",
		Short:         "Single-instance raffle coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the raffle service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return Run(cmd.Context())
			},
		},
		newMigrateCommand(),
		newAccountsCommand(),
	)
	return root
}

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateUp()
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := "1"
				if len(args) == 1 {
					steps = args[0]
				}
				return database.MigrateDown(steps)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateStatus()
			},
		},
	)

	migrateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("usage: raffler migrate [up|down|status] [args...]")
	}
	return migrateCmd
}
