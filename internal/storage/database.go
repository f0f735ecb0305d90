package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"imgchat/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Open prepares a handle for the configured database. It does not dial; the
// first statement (or an explicit Ping) does.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.DriverName()
	switch driver {
	case "sqlite3":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite path must be provided")
		}
		if err := ensureParentDir(cfg.Path); err != nil {
			return nil, err
		}
	case "postgres", "mysql":
		if cfg.DBName == "" {
			return nil, fmt.Errorf("%s database name must be provided", driver)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate applies the embedded migrations for the configured dialect.
func Migrate(cfg config.DatabaseConfig) error {
	driver := cfg.DriverName()
	if driver == "sqlite3" {
		if err := ensureParentDir(cfg.Path); err != nil {
			return err
		}
	}
	sub, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate (%s): %w", driver, err)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}
