package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	postgresMaxOpenConns = 4
	postgresConnMaxIdle  = 5 * time.Minute
)

// OpenPostgres connects to PostgreSQL through pgx and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(postgresMaxOpenConns)
	db.SetConnMaxIdleTime(postgresConnMaxIdle)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &SQLStore{db: db, dialect: postgresDialect, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
