// Package main содержит служебную утилиту crowdfundctl: миграции и загрузку тестовых данных.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var databaseURI string

	rootCmd := &cobra.Command{
		Use:          "crowdfundctl",
		Short:        "Operator tool for the crowdfund database",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURI == "" {
				databaseURI = os.Getenv("DATABASE_URI")
			}
			if databaseURI == "" {
				return fmt.Errorf("database URI is required: set DATABASE_URI or pass -d")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&databaseURI, "database", "d", "", "database URI (defaults to DATABASE_URI)")

	rootCmd.AddCommand(migrateCmd(&databaseURI, logger))
	rootCmd.AddCommand(seedCmd(&databaseURI, logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
