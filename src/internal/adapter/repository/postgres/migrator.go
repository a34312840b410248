package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies every pending up migration found in migrationsFS.
func RunMigrations(ctx context.Context, db *sql.DB, migrationsFS fs.FS) error {
	logger.Info("postgres migrations request", nil)

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}

	driver, err := migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("set up migrate driver: %w", err)
	}
	defer driver.Close()

	source, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("create iofs source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("set up migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("postgres migrations already up to date", nil)
			return nil
		}
		logger.Error("postgres migrations failed", err, nil)
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	logger.Info("postgres migrations success", logger.Fields{
		"version": version,
		"dirty":   dirty,
	})
	return nil
}
