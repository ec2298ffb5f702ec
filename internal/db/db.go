// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/fuelprice-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// Prepared statement names.
const (
	StmtHealthCheck         = "health_check"
	StmtLatestObservationAt = "latest_observation_at"
	StmtUpsertStation       = "upsert_station"
	StmtInsertPrice         = "insert_price"
	StmtListStations        = "list_stations_latest_prices"
)

// Statements maps prepared statement names to SQL. The schema they target is
// created by the embedded migrations, so statements are only registered
// once the tables exist.
var Statements = map[string]string{
	// Health
	StmtHealthCheck: "SELECT 1",

	// Ingestion: throttle gate
	StmtLatestObservationAt: "SELECT MAX(recorded_at) FROM " + config.PriceHistoryTable,

	// Ingestion: station identity upsert; xmax = 0 only for freshly inserted rows
	StmtUpsertStation: `
		INSERT INTO ` + config.StationsTable + ` (
			source, provider_site_id, name, address, latitude, longitude, country_code
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (source, provider_site_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			country_code = EXCLUDED.country_code,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted`,

	// Ingestion: append-only price history
	StmtInsertPrice: `
		INSERT INTO ` + config.PriceHistoryTable + ` (
			station_id, fuel_type, price, currency, recorded_at
		) VALUES ($1,$2,$3,$4,$5)`,

	// API: stations with the latest observation per fuel type
	StmtListStations: `
		SELECT s.id, s.source, s.provider_site_id, s.name, s.address,
			s.latitude, s.longitude, s.country_code, s.updated_at,
			p.fuel_type, p.price::float8, p.currency, p.recorded_at
		FROM ` + config.StationsTable + ` s
		LEFT JOIN LATERAL (
			SELECT DISTINCT ON (h.fuel_type) h.fuel_type, h.price, h.currency, h.recorded_at
			FROM ` + config.PriceHistoryTable + ` h
			WHERE h.station_id = s.id
			ORDER BY h.fuel_type, h.recorded_at DESC, h.id DESC
		) p ON true
		ORDER BY s.id, p.fuel_type`,
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
