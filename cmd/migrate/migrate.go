// Package migrate implements the migrate command that applies the bundled schema.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/common"
	"github.com/jonesrussell/north-cloud/aggregator/internal/database"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/migrations"
)

// Command returns the migrate command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			db, err := database.NewPostgresConnection(cmd.Context(), deps.Config.Database.DSN())
			if err != nil {
				return err
			}

			version, err := database.Migrate(db, migrations.FS, deps.Logger)
			if err != nil {
				return err
			}

			deps.Logger.Info("Migrations applied", logger.Int("version", int(version)))
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}

	cmd.AddCommand(downCommand())
	return cmd
}

func downCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			db, err := database.NewPostgresConnection(cmd.Context(), deps.Config.Database.DSN())
			if err != nil {
				return err
			}

			version, err := database.MigrateDown(db, migrations.FS, steps)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}
