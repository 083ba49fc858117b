package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/stacklok/layermap-scraper/database"
	"github.com/stacklok/layermap-scraper/internal/api"
	"github.com/stacklok/layermap-scraper/internal/config"
	"github.com/stacklok/layermap-scraper/internal/coordinator"
	"github.com/stacklok/layermap-scraper/internal/db"
	"github.com/stacklok/layermap-scraper/internal/httpclient"
	"github.com/stacklok/layermap-scraper/internal/pageserver"
	"github.com/stacklok/layermap-scraper/internal/scraper"
	"github.com/stacklok/layermap-scraper/internal/target"
	"github.com/stacklok/layermap-scraper/internal/telemetry"
	"github.com/stacklok/layermap-scraper/internal/writer"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // must be > serverRequestTimeout
	serverIdleTimeout      = 60 * time.Second
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [flags] ALL|tenant_id|tenant_id:timeline_id...",
		Short: "Continuously scrape layer maps into the database",
		Long: `Scrape the layer maps of the selected timelines every --interval and append
each snapshot to the layer_map table.

ALL selects every timeline of every tenant, a tenant id selects all its
timelines and tenant_id:timeline_id selects a single timeline. The selection
is re-evaluated periodically, so timelines created or deleted while the
scraper runs are picked up or dropped.

Examples:
  layermap-scraper scrape --endpoint http://pageserver:9898 --environment staging \
    --interval 60 --pg-host db --pg-user scraper --pg-database layermaps ALL`,
		RunE: runScrape,
	}

	fs := cmd.Flags()
	addPageserverFlags(fs)
	addDatabaseFlags(fs)
	fs.String(config.KeyInterval, "", "Seconds (or a duration) between two scrapes of a timeline (env SCRAPE_INTERVAL)")
	fs.String(config.KeyAddress, "", "Address for the health and metrics endpoints, disabled if empty")
	fs.Bool("migrate", false, "Apply pending database migrations before scraping")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForScrape(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	metrics, err := telemetry.NewScrapeMetrics(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	tracer := tel.Tracer(telemetry.TracerName)

	migrateFirst, err := cmd.Flags().GetBool("migrate")
	if err != nil {
		return fmt.Errorf("failed to get migrate flag: %w", err)
	}
	if migrateFirst {
		if err := applyMigrations(cfg.Database); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	w, err := writer.NewDBRecordWriter(pool)
	if err != nil {
		return fmt.Errorf("failed to create record writer: %w", err)
	}

	hc := httpclient.NewDefaultClient(cfg.GetRequestTimeout())
	defer hc.CloseIdleConnections()

	client, err := pageserver.NewClient(cfg.Pageserver.Endpoint, hc)
	if err != nil {
		return fmt.Errorf("failed to create pageserver client: %w", err)
	}

	interval := cfg.GetInterval()
	newRunner := func(pageserverID string) (coordinator.TaskRunner, error) {
		s, err := scraper.New(client, w, pageserverID, interval,
			scraper.WithMetrics(metrics),
			scraper.WithTracer(tracer),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	coord := coordinator.New(
		client,
		target.NewResolver(client),
		newRunner,
		cfg.Scrape.Targets,
		cfg.Pageserver.Environment,
		coordinator.WithInterval(cfg.GetReconcileInterval()),
		coordinator.WithRetryCooldown(cfg.GetRetryCooldown()),
		coordinator.WithMetrics(metrics),
		coordinator.WithTracer(tracer),
	)

	slog.Info("Starting layer map scraper",
		"endpoint", cfg.Pageserver.Endpoint,
		"environment", cfg.Pageserver.Environment,
		"interval", interval,
		"targets", cfg.Scrape.Targets,
	)

	var server *http.Server
	if cfg.Server.Address != "" {
		server = newOpsServer(cfg.Server.Address, coord, tel)
		go func() {
			slog.Info("Ops server listening", "address", cfg.Server.Address)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Ops server failed", "error", err)
				stop()
			}
		}()
	}

	runErr := coord.Start(ctx)
	if runErr != nil {
		runErr = fmt.Errorf("coordinator failed: %w", runErr)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Ops server forced to shut down", "error", err)
		}
	}

	slog.Info("Layer map scraper stopped")
	return runErr
}

func newOpsServer(address string, status api.StatusProvider, tel *telemetry.Telemetry) *http.Server {
	router := api.NewServer(status,
		api.WithMiddlewares(
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
		api.WithMetricsHandler(tel.MetricsHandler()),
	)

	return &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}
}

func applyMigrations(dbCfg *config.DatabaseConfig) error {
	connString, err := dbCfg.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}
	if err := database.MigrateUp(connString); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
