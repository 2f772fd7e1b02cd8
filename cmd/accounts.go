package cmd

import (
	"context"
	"fmt"
	"strings"

	"raffler/config"
	"raffler/database"
	"raffler/repository"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// payoutSetter is the slice of the account repository the payouts command needs
type payoutSetter interface {
	SetAcceptsPayouts(ctx context.Context, identity string, accepts bool) error
}

func newAccountsCommand() *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Operator tools for payout accounts",
	}

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "payouts <identity> <accept|reject>",
		Short: "Mark whether an account accepts prize payouts",
		Long: "A rejecting account makes any payout to it fail, which leaves the round " +
			"CALCULATING until an operator intervenes.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accepts, err := parsePayoutSetting(args[1])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("accounts payouts needs STORAGE_DRIVER=%s", config.StorageDriverPostgres)
			}

			db, err := database.NewConnection(cmd.Context(), cfg.GetDatabaseURL())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			return setPayouts(cmd.Context(), repository.NewAccountRepository(db.Pool), args[0], accepts)
		},
	})
	return accountsCmd
}

func parsePayoutSetting(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "accept":
		return true, nil
	case "reject":
		return false, nil
	default:
		return false, fmt.Errorf("payout setting must be accept or reject, got %q", value)
	}
}

func setPayouts(ctx context.Context, accounts payoutSetter, identity string, accepts bool) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	if err := accounts.SetAcceptsPayouts(ctx, identity, accepts); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"identity":        identity,
		"accepts_payouts": accepts,
	}).Info("Payout setting updated")
	return nil
}
