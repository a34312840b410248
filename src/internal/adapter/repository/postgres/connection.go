package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/lib/pq"
)

// Pool sizing follows the request concurrency of the HTTP server plus the
// recovery worker.
const (
	maxIdleConns    = 20
	maxOpenConns    = 30
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 15 * time.Minute
)

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxIdleConns(maxIdleConns)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	logger.Info("postgres connection established", logger.Fields{
		"maxOpenConns": maxOpenConns,
		"maxIdleConns": maxIdleConns,
	})

	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23514"
	}
	return false
}

func execRequiredRows(ctx context.Context, tx *sql.Tx, notFound error, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("execute transaction statement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	if rows == 0 {
		return 0, notFound
	}
	return rows, nil
}
