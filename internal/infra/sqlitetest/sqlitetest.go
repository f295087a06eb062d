// Package sqlitetest gives each test its own migrated SQLite database under
// a temp directory, so repo and service tests run against the real storage
// stack instead of mocks.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcengine/currency/internal/config"
	"github.com/mcengine/currency/internal/infra/dbmigrate"
	"github.com/mcengine/currency/internal/infra/sqlutils"
)

// NewTestDB opens a fresh file-backed database, applies the embedded
// migrations, and registers cleanup on t.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.StorageConfig{
		Backend: string(config.BackendSQLite),
		SQLite: config.SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "currency.db"),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlutils.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = dbmigrate.Run(db, config.BackendSQLite)
	if err != nil {
		_ = db.Close()
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Seed upserts one account row with the given fixed-point balance on a
// single denomination column.
func Seed(t *testing.T, db *sql.DB, playerID, column, balance string) {
	t.Helper()

	allowed := map[string]bool{"coin": true, "copper": true, "silver": true, "gold": true}
	if !allowed[column] {
		t.Fatalf("seed: unknown balance column %q", column)
	}

	_, err := db.Exec(`
		INSERT INTO currency (player_uuid, coin, copper, silver, gold)
		VALUES (?, '0.00', '0.00', '0.00', '0.00')
		ON CONFLICT (player_uuid) DO NOTHING
	`, playerID)
	if err != nil {
		t.Fatalf("seed account %s: %v", playerID, err)
	}

	_, err = db.Exec(`UPDATE currency SET `+column+` = ? WHERE player_uuid = ?`, balance, playerID)
	if err != nil {
		t.Fatalf("seed balance %s.%s: %v", playerID, column, err)
	}
}
