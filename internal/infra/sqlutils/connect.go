package sqlutils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/mcengine/currency/internal/config"
)

// Open opens the configured backend and verifies the connection.
func Open(ctx context.Context, cfg config.StorageConfig) (*sql.DB, error) {
	backend, err := config.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	var db *sql.DB

	switch backend {
	case config.BackendSQLite:
		dir := filepath.Dir(cfg.SQLite.Path)

		err = os.MkdirAll(dir, 0o755)
		if err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}

		db, err = sql.Open("sqlite3", cfg.SQLite.DSN())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

	case config.BackendMySQL:
		db, err = sql.Open("mysql", cfg.MySQL.DSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
