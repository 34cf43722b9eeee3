package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// MigrationFS returns the embedded migration directory for driver.
func MigrationFS(driver Driver) (fs.FS, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return fs.Sub(migrations, "migrations/"+string(driver))
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// NewMigrator builds a goose provider over the embedded migrations.
func NewMigrator(conn *sql.DB, driver Driver) (*goose.Provider, error) {
	fsys, err := MigrationFS(driver)
	if err != nil {
		return nil, err
	}
	dialect := goose.DialectSQLite3
	if driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, conn *sql.DB, driver Driver) error {
	provider, err := NewMigrator(conn, driver)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
