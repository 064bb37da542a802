package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		panic(err)
	}
	goose.SetLogger(goose.NopLogger())
}

// TelemetryDB is a separate SQLite database holding the audit trail and SQL
// traces. It is never the database served to clients, so their table
// listings stay free of server bookkeeping.
type TelemetryDB struct {
	*sqlx.DB
}

// OpenTelemetry opens the telemetry database at path and applies pending
// migrations.
func OpenTelemetry(ctx context.Context, path string) (*TelemetryDB, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating telemetry data dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	sqlDB, err := sqlx.Open(Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry database: %w", err)
	}
	if path == MemoryPath {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging telemetry database: %w", err)
	}

	if err := migrate(ctx, sqlDB.DB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating telemetry database: %w", err)
	}

	slog.Debug("telemetry database ready", "component", "db", "path", path)
	return &TelemetryDB{sqlDB}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
