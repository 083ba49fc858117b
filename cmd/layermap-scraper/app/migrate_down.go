package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: reverting the initial migration drops the layer_map table and every recorded snapshot.

Examples:
  # Migrate down by 1 step
  layermap-scraper migrate down --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  layermap-scraper migrate down --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	_, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}
	steps, err := numSteps(cmd)
	if err != nil {
		return err
	}

	ok, err := confirm(cmd, migrateDownPrompt(steps))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}

	if steps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", steps)
	}
	if err := database.MigrateDown(connString, steps); err != nil {
		return err
	}
	slog.Info("Migration completed successfully")

	return displayMigrationVersion(cmd.OutOrStdout(), connString)
}

func migrateDownPrompt(steps int) string {
	if steps == 0 {
		return "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	}
	return fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", steps)
}
