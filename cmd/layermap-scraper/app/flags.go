package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stacklok/layermap-scraper/internal/config"
)

func addPageserverFlags(fs *pflag.FlagSet) {
	fs.String(config.KeyEndpoint, "", "Pageserver management API endpoint (env SCRAPE_ENDPOINT)")
	fs.String(config.KeyEnvironment, "", "Environment label, e.g. staging (env SCRAPE_ENVIRONMENT)")
}

func addDatabaseFlags(fs *pflag.FlagSet) {
	fs.String(config.KeyPGHost, "", "PostgreSQL host (env PGHOST)")
	fs.Int(config.KeyPGPort, 0, "PostgreSQL port (env PGPORT)")
	fs.String(config.KeyPGUser, "", "PostgreSQL user (env PGUSER)")
	fs.String(config.KeyPGPassword, "", "PostgreSQL password (env PGPASSWORD)")
	fs.String(config.KeyPGDatabase, "", "PostgreSQL database (env PGDATABASE)")
	fs.String(config.KeyPGSSLMode, "", "PostgreSQL SSL mode, require if unset (env PGSSLMODE)")
}

// loadConfig merges the config file, the environment and the command's flags.
// Positional targets, when given, replace the configured ones.
func loadConfig(cmd *cobra.Command, targets []string) (*config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := config.BindEnv(v); err != nil {
		return nil, err
	}

	cfg, err := config.FromViper(v, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if path := v.GetString(config.KeyConfig); path != "" {
		slog.Debug("Loaded configuration file", "path", path)
	}
	return cfg, nil
}
