package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mcengine/currency/internal/config"
	"github.com/mcengine/currency/internal/infra/dbmigrate"
	"github.com/mcengine/currency/internal/infra/logging"
	"github.com/mcengine/currency/internal/infra/sqlutils"
	"github.com/mcengine/currency/pkg/envconf"
)

//go:embed seed/sqlite/*.sql seed/mysql/*.sql
var seedFS embed.FS

type migratorConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL"`
	AppEnv   string     `env:"APP_ENV,optional"`
	Storage  config.StorageConfig
}

func main() {
	err := migrateAll()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func migrateAll() error {
	cfg := new(migratorConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	backend, err := config.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlutils.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	err = dbmigrate.Run(db, backend)
	if err != nil {
		return fmt.Errorf("base migrations failed: %w", err)
	}

	slog.Info("base migrations applied")

	if cfg.AppEnv == "DEV" {
		err = applySeed(ctx, db, backend)
		if err != nil {
			return fmt.Errorf("dev seed failed: %w", err)
		}

		slog.Info("dev seed applied")
	}

	return nil
}

// applySeed executes the embedded demo-data statements for the backend.
// Seed files use insert-ignore, so re-running is harmless.
func applySeed(ctx context.Context, db *sql.DB, backend config.Backend) error {
	dir := "seed/" + string(backend)

	entries, err := seedFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read seed dir: %w", err)
	}

	for _, entry := range entries {
		data, err := seedFS.ReadFile(dir + "/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read seed %s: %w", entry.Name(), err)
		}

		_, err = db.ExecContext(ctx, string(data))
		if err != nil {
			return fmt.Errorf("apply seed %s: %w", entry.Name(), err)
		}
	}

	return nil
}
