// Package dbmigrate applies the embedded currency schema migrations for
// whichever backend the service was configured with. Running it on an
// up-to-date database is a no-op, so it is safe to call on every startup.
package dbmigrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mcengine/currency/internal/config"
)

//go:embed sqlite/*.sql mysql/*.sql
var migrationsFS embed.FS

// Run migrates db up to the latest schema version.
func Run(db *sql.DB, backend config.Backend) error {
	var (
		driver     migratedb.Driver
		driverName string
		err        error
	)

	switch backend {
	case config.BackendSQLite:
		driverName = "sqlite3"
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case config.BackendMySQL:
		driverName = "mysql"
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownBackend, string(backend))
	}

	if err != nil {
		return fmt.Errorf("init %s migrate driver: %w", driverName, err)
	}

	src, err := iofs.New(migrationsFS, string(backend))
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return fmt.Errorf("init migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
