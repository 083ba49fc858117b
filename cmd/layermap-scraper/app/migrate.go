package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/database"
	"github.com/stacklok/layermap-scraper/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing the layer_map schema. Use with 'up', 'down' or 'version'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	addDatabaseFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())

	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, connString, err := migrationTarget(cmd)
			if err != nil {
				return err
			}
			return displayMigrationVersion(cmd.OutOrStdout(), connString)
		},
	}
}

// migrationTarget loads the database settings and returns them with the
// connection string migrations run against.
func migrationTarget(cmd *cobra.Command) (*config.DatabaseConfig, string, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, "", err
	}
	if cfg.Database == nil {
		return nil, "", fmt.Errorf("database configuration is required")
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid database configuration: %w", err)
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build connection string: %w", err)
	}
	return cfg.Database, connString, nil
}

// confirm asks prompt on out and reports whether the answer read from in is yes.
// --yes skips the question.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return true, nil
	}
	return ask(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
}

func ask(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s (yes/no): ", prompt); err != nil {
		return false, err
	}
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

func numSteps(cmd *cobra.Command) (int, error) {
	n, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return 0, fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if n > 1<<31-1 {
		return 0, fmt.Errorf("number of steps exceeds maximum allowed value")
	}
	return int(n), nil // #nosec G115 -- overflow checked above
}

func displayMigrationVersion(out io.Writer, connString string) error {
	version, dirty, err := database.GetVersion(connString)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty - manual intervention may be required"
	}
	_, err = fmt.Fprintf(out, "Current migration version: %d (%s)\n", version, state)
	return err
}
