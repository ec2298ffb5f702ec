// Command ingest is the fuel price ingestion CLI.
//
// Usage:
//
//	fuelprice-ingest fetch
//	fuelprice-ingest fetch --force --country GB
//	fuelprice-ingest fetch --provider tesco --dry-run
//	fuelprice-ingest providers
//	fuelprice-ingest migrate up
//	fuelprice-ingest schedule --every 10m
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/albapepper/fuelprice-data/internal/aggregate"
	"github.com/albapepper/fuelprice-data/internal/config"
	"github.com/albapepper/fuelprice-data/internal/db"
	"github.com/albapepper/fuelprice-data/internal/ingest"
	"github.com/albapepper/fuelprice-data/internal/provider"
	"github.com/albapepper/fuelprice-data/internal/provider/uk"
	"github.com/albapepper/fuelprice-data/internal/scheduler"
	"github.com/albapepper/fuelprice-data/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "fuelprice-ingest",
		Short:         "Fuel price ingestion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(fetchCmd())
	root.AddCommand(providersCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(scheduleCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// fetch command
// --------------------------------------------------------------------------

func fetchCmd() *cobra.Command {
	var (
		force     bool
		dryRun    bool
		migrate   bool
		country   string
		providers []string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every provider feed once and store the prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject unknown names before touching config or the database.
			if _, err := uk.Select(providers); err != nil {
				return err
			}
			if dryRun {
				return runDry(func(ctx context.Context, cfg *config.Config) error {
					return dryRunFetch(ctx, cfg, providers, force, country)
				})
			}
			return runWithStore(migrate, func(ctx context.Context, cfg *config.Config, st *store.Postgres) error {
				runner, err := buildRunner(cfg, st, providers)
				if err != nil {
					return err
				}
				res, err := runner.Run(ctx, ingest.CycleOptions{Force: force, Country: countryOr(country, cfg)})
				if err != nil {
					return err
				}
				if !res.Skipped {
					logFailures(res)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the hourly throttle")
	cmd.Flags().StringVar(&country, "country", "", "Country code stored on stations (default FUEL_DEFAULT_COUNTRY)")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "Fetch only the named provider(s); repeatable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fetch and normalize without writing to Postgres; print records as JSON")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending schema migrations first")
	return cmd
}

// recordingFetcher keeps the last report so a dry run can print it.
type recordingFetcher struct {
	ingest.Fetcher
	report aggregate.Report
}

func (f *recordingFetcher) FetchAll(ctx context.Context) aggregate.Report {
	f.report = f.Fetcher.FetchAll(ctx)
	return f.report
}

func dryRunFetch(ctx context.Context, cfg *config.Config, names []string, force bool, country string) error {
	agg, err := buildAggregator(cfg, names)
	if err != nil {
		return err
	}
	fetcher := &recordingFetcher{Fetcher: agg}
	mem := store.NewMemory()
	res, err := ingest.NewRunner(mem, fetcher, logger).Run(ctx, ingest.CycleOptions{Force: force, Country: countryOr(country, cfg)})
	if err != nil {
		return err
	}
	logFailures(res)

	records := fetcher.report.Stations
	if records == nil {
		records = []provider.Station{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	stations, observations := mem.Len()
	logger.Info("Dry run finished", "stations", stations, "observations", observations)
	return nil
}

func logFailures(res ingest.CycleResult) {
	for _, e := range res.Ingest.Errors {
		logger.Error("ingest error", "error", e)
	}
}

// --------------------------------------------------------------------------
// providers command
// --------------------------------------------------------------------------

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered provider feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL")
			for _, f := range uk.Feeds() {
				fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.URL)
			}
			return tw.Flush()
		},
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			return db.MigrateUp(cfg.DatabaseURL, logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			return db.MigrateDown(cfg.DatabaseURL, steps, logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

// --------------------------------------------------------------------------
// schedule command
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	var (
		every   time.Duration
		country string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run fetch cycles on an interval and serve /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(migrate, func(ctx context.Context, cfg *config.Config, st *store.Postgres) error {
				runner, err := buildRunner(cfg, st, nil)
				if err != nil {
					return err
				}
				interval := every
				if interval <= 0 {
					interval = cfg.ScheduleInterval
				}

				metricsSrv := serveMetrics(cfg.MetricsAddr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = metricsSrv.Shutdown(shutdownCtx)
				}()

				s := scheduler.New(runner, scheduler.Config{Interval: interval, Country: countryOr(country, cfg)}, logger)
				return s.Run(ctx)
			})
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "Interval between cycles (default FUEL_SCHEDULE_INTERVAL)")
	cmd.Flags().StringVar(&country, "country", "", "Country code stored on stations (default FUEL_DEFAULT_COUNTRY)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending schema migrations first")
	return cmd
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildAggregator(cfg *config.Config, names []string) (*aggregate.Aggregator, error) {
	if len(names) == 0 {
		names = cfg.Providers
	}
	specs, err := uk.Select(names)
	if err != nil {
		return nil, err
	}
	client := provider.NewClient(cfg.FetchTimeout, logger)
	bc := provider.BreakerConfig{Failures: uint32(cfg.BreakerFailures), Cooldown: cfg.BreakerCooldown}
	return aggregate.New(uk.Adapters(specs, client, bc, logger), cfg.FetchConcurrency, logger), nil
}

func buildRunner(cfg *config.Config, st ingest.Store, names []string) (*ingest.Runner, error) {
	agg, err := buildAggregator(cfg, names)
	if err != nil {
		return nil, err
	}
	logger.Info("Providers selected", "providers", agg.Providers())
	return ingest.NewRunner(st, agg, logger), nil
}

func countryOr(country string, cfg *config.Config) string {
	if country != "" {
		return country
	}
	return cfg.DefaultCountry
}

func loadDatabaseConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runDry handles config loading and context cancellation without a database.
func runDry(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return fn(ctx, cfg)
}

// runWithStore handles config loading, optional migrations, DB connection,
// and context cancellation.
func runWithStore(migrate bool, fn func(ctx context.Context, cfg *config.Config, st *store.Postgres) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}

	if migrate {
		if err := db.MigrateUp(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, store.NewPostgres(pool.Pool))
}
