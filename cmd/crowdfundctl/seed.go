package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/seed"
)

func seedCmd(databaseURI *string, logger *zap.Logger) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load users, campaigns and donations from a YAML file",
		Long: `Load fixtures into the database.

Donations are recorded through the same ledger transaction as real payments,
so campaign raised amounts always equal the sum of their donations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			defer f.Close()

			fx, err := seed.Decode(f)
			if err != nil {
				return err
			}

			repo, err := repository.NewPostgresRepository(*databaseURI)
			if err != nil {
				return err
			}
			defer repo.Close()

			sum, err := seed.Apply(cmd.Context(), repo, fx, seed.Options{Reset: reset})
			if err != nil {
				return err
			}

			logger.Info("fixtures loaded",
				zap.String("file", args[0]),
				zap.Int("users", sum.Users),
				zap.Int("campaigns", sum.Campaigns),
				zap.Int("donations", sum.Donations),
				zap.Int("replayed", sum.Replayed),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d users, %d campaigns, %d donations\n",
				sum.Users, sum.Campaigns, sum.Donations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "truncate all tables before loading")

	return cmd
}
