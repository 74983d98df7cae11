package database

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// newMigrator reads migrations from fsys and applies them through db.
// Closing the returned migrator closes db.
func newMigrator(db *sqlx.DB, fsys fs.FS) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending up migrations and returns the resulting schema version.
func Migrate(db *sqlx.DB, fsys fs.FS, log logger.Logger) (uint, error) {
	m, err := newMigrator(db, fsys)
	if err != nil {
		return 0, err
	}
	defer func() { _, _ = m.Close() }()

	if err = m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return 0, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("No pending migrations")
	}

	return currentVersion(m)
}

// MigrateDown rolls back steps migrations and returns the resulting schema version.
func MigrateDown(db *sqlx.DB, fsys fs.FS, steps int) (uint, error) {
	if steps < 1 {
		steps = 1
	}

	m, err := newMigrator(db, fsys)
	if err != nil {
		return 0, err
	}
	defer func() { _, _ = m.Close() }()

	if err = m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("rollback migrations: %w", err)
	}

	return currentVersion(m)
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
