package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/repository"
)

func migrateCmd(databaseURI *string, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.NewPostgresRepository(*databaseURI)
			if err != nil {
				return err
			}
			defer repo.Close()

			version, err := repo.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("migrations applied", zap.Int64("version", version))
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
