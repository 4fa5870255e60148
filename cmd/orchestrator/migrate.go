package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var direction string
	var steps int
	var dbURL string
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := dbURL
			if dsn == "" {
				dsn = ctx.config().Database.DSN()
			}

			m, err := migrate.New("file://"+migrationsPath, dsn)
			if err != nil {
				return fmt.Errorf("create migrator: %w", err)
			}
			defer m.Close()

			switch direction {
			case "up":
				if steps > 0 {
					err = m.Steps(steps)
				} else {
					err = m.Up()
				}
			case "down":
				if steps > 0 {
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
			default:
				return fmt.Errorf("invalid direction: %s (use 'up' or 'down')", direction)
			}

			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration failed: %w", err)
			}

			v, dirty, _ := m.Version()
			fmt.Fprintf(cmd.OutOrStdout(), "migration %s complete (version: %d, dirty: %v)\n", direction, v, dirty)
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "up", "Migration direction: up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of steps (0 = all)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (overrides configuration)")
	cmd.Flags().StringVar(&migrationsPath, "path", "migrations", "Path to the migrations directory")
	return cmd
}
