package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/directory/*.sql migrations/finance/*.sql
var migrationsFS embed.FS

// Schema selects which embedded migration set applies to a database.
type Schema string

const (
	// DirectorySchema is the shared account directory.
	DirectorySchema Schema = "migrations/directory"
	// FinanceSchema is one account's isolated finance store.
	FinanceSchema Schema = "migrations/finance"
)

// RunMigrations brings the database at dbPath up to the latest version of
// the given schema. Running it again on an up-to-date database is a no-op.
func RunMigrations(dbPath string, schema Schema) error {
	// Separate connection so migrations never interfere with the main pool.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, string(schema))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
