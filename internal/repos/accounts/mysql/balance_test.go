package mysql

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/config"
	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/infra/dbmigrate"
	"github.com/mcengine/currency/internal/repos/accounts"
)

const (
	playerA = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	playerB = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

// newTestDB connects to the MySQL instance named by MYSQL_TEST_DSN (for
// example "root:root@tcp(localhost:3306)/currency_test?parseTime=true") and
// migrates it. Without the variable the MySQL suite is skipped; the SQLite
// suite covers the contract on every run.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL repo tests")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		t.Fatalf("ping mysql: %v", err)
	}

	err = dbmigrate.Run(db, config.BackendMySQL)
	if err != nil {
		t.Fatalf("migrate mysql: %v", err)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM currency_transaction`)
	if err != nil {
		t.Fatalf("clean transactions: %v", err)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM currency`)
	if err != nil {
		t.Fatalf("clean accounts: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestAccounts_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.GetBalance(ctx, playerA, currency.Coin)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got: %v", err)
	}

	err = repo.Create(ctx, playerA)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Idempotent create.
	err = repo.Create(ctx, playerA)
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.IncreaseBalance(tx, playerA, currency.Coin, decimal.RequireFromString("10.25"))
	if err != nil {
		t.Fatalf("increase: %v", err)
	}

	err = repo.DecreaseBalance(tx, playerA, currency.Coin, decimal.RequireFromString("0.25"))
	if err != nil {
		t.Fatalf("decrease: %v", err)
	}

	err = repo.DecreaseBalance(tx, playerA, currency.Coin, decimal.RequireFromString("100.00"))
	if !errors.Is(err, accounts.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.GetBalance(ctx, playerA, currency.Coin)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("want 10.00, got %s", got)
	}
}

func TestAccounts_ForUpdate_ConcurrentGuard(t *testing.T) {
	db := newTestDB(t)
	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := repo.Create(ctx, playerB)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = db.ExecContext(ctx, `UPDATE currency SET coin = 1000.00 WHERE player_uuid = ?`, playerB)
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	amount := decimal.RequireFromString("1000.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	success, insufficient := 0, 0

	worker := func(name string) {
		defer wg.Done()

		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			t.Errorf("[%s] begin tx: %v", name, err)
			return
		}
		defer func() { _ = tx.Rollback() }()

		// FOR UPDATE serializes the two workers on the row.
		_, err = repo.LockAndGetBalance(tx, playerB, currency.Coin)
		if err != nil {
			t.Errorf("[%s] lock balance: %v", name, err)
			return
		}

		err = repo.DecreaseBalance(tx, playerB, currency.Coin, amount)
		if err == nil {
			mu.Lock()
			success++
			mu.Unlock()
			if err := tx.Commit(); err != nil {
				t.Errorf("[%s] commit: %v", name, err)
			}
			return
		}

		if errors.Is(err, accounts.ErrInsufficientFunds) {
			mu.Lock()
			insufficient++
			mu.Unlock()
			return
		}

		t.Errorf("[%s] unexpected error: %v", name, err)
	}

	wg.Add(2)
	go worker("A")
	go worker("B")
	wg.Wait()

	if success != 1 || insufficient != 1 {
		t.Fatalf("want 1 success and 1 insufficient, got success=%d insufficient=%d", success, insufficient)
	}
}
