package app

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/internal/httpclient"
	"github.com/stacklok/layermap-scraper/internal/pageserver"
	"github.com/stacklok/layermap-scraper/internal/target"
)

func newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets [flags] ALL|tenant_id|tenant_id:timeline_id...",
		Short: "Resolve target specifications once and print the timelines they select",
		Long: `Resolve the given target specifications against the pageserver and print
the tenant/timeline pairs a scraper would poll. Nothing is written to the database.`,
		RunE: runTargets,
	}
	addPageserverFlags(cmd.Flags())
	return cmd
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	hc := httpclient.NewDefaultClient(cfg.GetRequestTimeout())
	defer hc.CloseIdleConnections()

	client, err := pageserver.NewClient(cfg.Pageserver.Endpoint, hc)
	if err != nil {
		return fmt.Errorf("failed to create pageserver client: %w", err)
	}

	set, err := target.NewResolver(client).Resolve(cmd.Context(), cfg.Scrape.Targets)
	if err != nil {
		return err
	}

	return printTargets(cmd.OutOrStdout(), set)
}

func printTargets(out io.Writer, set target.Set) error {
	table := tablewriter.NewWriter(out)
	table.Header("TENANT", "TIMELINE")
	for _, k := range set.Keys() {
		if err := table.Append(k.TenantID, k.TimelineID); err != nil {
			return fmt.Errorf("failed to render targets: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render targets: %w", err)
	}
	return nil
}
