package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matheus3301/freightmsg/internal/store/migrations"
)

// MigrateResult describes what happened during migration.
type MigrateResult struct {
	Version uint
	Dirty   bool
	Changed bool
	Rebuilt bool
}

// cacheTables lists every table the migrations create, version table last.
var cacheTables = []string{"messages", "conversations", "outbox", "sync_state", "schema_migrations"}

func (db *DB) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}

// Migrate runs all pending migrations. A cache left dirty by an interrupted
// migration is rebuilt from scratch since nothing in it is authoritative.
func (db *DB) Migrate() (*MigrateResult, error) {
	res, err := db.up()
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		if err := db.Rebuild(); err != nil {
			return nil, err
		}
		res, err = db.up()
		if res != nil {
			res.Rebuilt = true
		}
	}
	return res, err
}

func (db *DB) up() (*MigrateResult, error) {
	m, err := db.migrator()
	if err != nil {
		return nil, err
	}
	err = m.Up()
	changed := !errors.Is(err, migrate.ErrNoChange)
	if err != nil && changed {
		return nil, fmt.Errorf("migration up: %w", err)
	}
	version, dirty, _ := m.Version()
	return &MigrateResult{Version: version, Dirty: dirty, Changed: changed}, nil
}

// Rebuild drops every cache table. Call Migrate afterwards to recreate them.
func (db *DB) Rebuild() error {
	for _, t := range cacheTables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}
