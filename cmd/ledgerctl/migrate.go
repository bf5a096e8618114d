package main

import (
	"fmt"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/pkg/database"
	"github.com/spf13/cobra"
)

func migrateCommands(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the ledger schema",
	}
	cmd.AddCommand(migrateCommand(c, "up", database.MigrateUp))
	cmd.AddCommand(migrateCommand(c, "down", database.MigrateDown))
	return cmd
}

func migrateCommand(c *cli, use string, direction database.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Run all %s migrations", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.DatabaseURL == "" {
				return fmt.Errorf("PGSQL_URL is required for migrations")
			}
			changed, err := database.RunMigrations(c.cfg.DatabaseURL, direction, c.logger)
			if err != nil {
				return err
			}
			if changed {
				cmd.Printf("migrations %s applied\n", use)
			} else {
				cmd.Println("no migrations to apply")
			}
			return nil
		},
	}
}
