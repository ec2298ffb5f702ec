package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLogger adapts slog to migrate.Logger.
type migrationLogger struct {
	logger *slog.Logger
	debug  bool
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrationLogger) Verbose() bool { return l.debug }

// MigrateUp applies every pending migration.
func MigrateUp(databaseURL string, logger *slog.Logger) error {
	return runMigration(databaseURL, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(databaseURL string, steps int, logger *slog.Logger) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	return runMigration(databaseURL, logger, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigration(databaseURL string, logger *slog.Logger, apply func(*migrate.Migrate) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrationURL(databaseURL))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()
	m.Log = migrationLogger{logger: logger}

	before, _, _ := m.Version()
	if err := apply(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No new migrations to apply", "version", before)
			return nil
		}
		version, dirty, _ := m.Version()
		return fmt.Errorf("apply migrations (version=%d dirty=%t): %w", version, dirty, err)
	}

	after, _, _ := m.Version()
	logger.Info("Migrations applied", "from", before, "to", after)
	return nil
}

// migrationURL rewrites a postgres:// URL to the pgx5:// scheme the
// golang-migrate pgx driver registers.
func migrationURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
