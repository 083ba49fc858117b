// Package app provides the commands of the layermap-scraper binary.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/internal/config"
	"github.com/stacklok/layermap-scraper/internal/versions"
)

// NewRootCmd creates the root command. level is raised to debug when
// --verbose is given; it may be nil.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "layermap-scraper",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Periodically record pageserver layer maps",
		Long: `layermap-scraper polls the layer map of every selected timeline on a
pageserver and appends each snapshot to a PostgreSQL table.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(config.KeyVerbose)
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			if verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String(config.KeyConfig, "", "Path to configuration file (YAML format)")

	rootCmd.AddCommand(newScrapeCmd())
	rootCmd.AddCommand(newTargetsCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
