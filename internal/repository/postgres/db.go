// Package postgres implements domain.EventStore on PostgreSQL through database/sql.
// Either lib/pq ("postgres") or the pgx stdlib driver ("pgx") can back the *sql.DB.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// codeForeignKeyViolation is the SQLSTATE of a registration written before its event.
const codeForeignKeyViolation = "23503"

// Open opens a pool with the given driver and waits until the server answers a ping,
// retrying a few times to ride out container start-up.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*sql.DB, error) {
	switch driver {
	case "", "postgres":
		driver = "postgres"
	case "pgx":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			break
		}
		logger.WarnContext(ctx, "database ping failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	db.Close()
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// errorCode extracts the SQLSTATE from either driver's error type.
func errorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
