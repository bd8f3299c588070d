package main

import (
	"github.com/spf13/cobra"

	"github.com/mmartin-estofados/storefront/pkg/app"
)

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cmd.Context(), cmd.OutOrStdout())
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Rollback(cmd.Context(), cmd.OutOrStdout())
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.MigrationStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed products, settings and the cushion kit (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Seed(cmd.Context(), cmd.OutOrStdout())
	},
}
