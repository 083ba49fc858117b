package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations to bring the layer_map schema up to date.
Connection parameters come from the config file, PG* environment variables or flags.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	dbCfg, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}
	steps, err := numSteps(cmd)
	if err != nil {
		return err
	}

	ok, err := confirm(cmd, fmt.Sprintf("About to apply migrations to database %s@%s:%d/%s. Continue?",
		dbCfg.User, dbCfg.Host, dbCfg.GetPort(), dbCfg.Database))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Applying database migrations", "steps", steps)
	if steps == 0 {
		err = database.MigrateUp(connString)
	} else {
		err = migrateUpSteps(connString, steps)
	}
	if err != nil {
		return err
	}

	return displayMigrationVersion(cmd.OutOrStdout(), connString)
}

func migrateUpSteps(connString string, steps int) error {
	m, err := database.GetMigrate(connString)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Steps(steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
