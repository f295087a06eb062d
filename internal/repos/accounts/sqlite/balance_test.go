package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/infra/sqlitetest"
	"github.com/mcengine/currency/internal/repos/accounts"
)

const playerA = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"

func TestAccounts_Create_Idempotent(t *testing.T) {
	t.Parallel()

	db := sqlitetest.NewTestDB(t)
	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := repo.Create(ctx, playerA)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Bump a balance, then create again; the second create must not reset it.
	sqlitetest.Seed(t, db, playerA, "gold", "7.50")

	err = repo.Create(ctx, playerA)
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}

	got, err := repo.GetBalance(ctx, playerA, currency.Gold)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	if !got.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("balance reset by re-create: got %s", got)
	}
}

func TestAccounts_GetBalance(t *testing.T) {
	t.Parallel()

	db := sqlitetest.NewTestDB(t)
	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.GetBalance(ctx, playerA, currency.Coin)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for missing row, got: %v", err)
	}

	err = repo.Create(ctx, playerA)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, typ := range currency.All() {
		got, err := repo.GetBalance(ctx, playerA, typ)
		if err != nil {
			t.Fatalf("get %s: %v", typ, err)
		}
		if !got.IsZero() {
			t.Fatalf("fresh account %s balance: got %s, want 0", typ, got)
		}
	}
}

func TestAccounts_GetBalances_Snapshot(t *testing.T) {
	t.Parallel()

	db := sqlitetest.NewTestDB(t)
	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.GetBalances(ctx, playerA)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got: %v", err)
	}

	sqlitetest.Seed(t, db, playerA, "coin", "12.34")
	sqlitetest.Seed(t, db, playerA, "silver", "0.05")

	b, err := repo.GetBalances(ctx, playerA)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}

	if !b.Coin.Equal(decimal.RequireFromString("12.34")) ||
		!b.Silver.Equal(decimal.RequireFromString("0.05")) ||
		!b.Copper.IsZero() || !b.Gold.IsZero() {
		t.Fatalf("snapshot mismatch: %+v", b)
	}
}

func TestAccounts_DecreaseBalance_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		seed        string // starting coin balance, empty -> no account
		amount      string
		wantBalance string
		wantErr     error
	}{
		{
			name:        "sufficient_funds",
			seed:        "1000.00",
			amount:      "250.00",
			wantBalance: "750.00",
		},
		{
			name:        "exact_to_zero",
			seed:        "300.00",
			amount:      "300.00",
			wantBalance: "0.00",
		},
		{
			name:        "cent_precision",
			seed:        "0.30",
			amount:      "0.10",
			wantBalance: "0.20",
		},
		{
			name:        "insufficient_balance_unchanged",
			seed:        "200.00",
			amount:      "300.00",
			wantBalance: "200.00",
			wantErr:     accounts.ErrInsufficientFunds,
		},
		{
			name:    "missing_account",
			amount:  "100.00",
			wantErr: accounts.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := sqlitetest.NewTestDB(t)
			repo := New(db)

			if tt.seed != "" {
				sqlitetest.Seed(t, db, playerA, "coin", tt.seed)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.DecreaseBalance(tx, playerA, currency.Coin, decimal.RequireFromString(tt.amount))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got: %v", tt.wantErr, err)
				}
				// no commit on error
			} else {
				if err != nil {
					t.Fatalf("decrease balance: %v", err)
				}
				if err := tx.Commit(); err != nil {
					t.Fatalf("commit: %v", err)
				}
			}

			if tt.seed == "" {
				return
			}

			got, err := repo.GetBalance(ctx, playerA, currency.Coin)
			if err != nil {
				t.Fatalf("get balance after decrease: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Fatalf("final balance mismatch: want %s, got %s", tt.wantBalance, got)
			}
		})
	}
}

func TestAccounts_IncreaseBalance(t *testing.T) {
	t.Parallel()

	db := sqlitetest.NewTestDB(t)
	repo := New(db)

	sqlitetest.Seed(t, db, playerA, "copper", "0.10")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	err = repo.IncreaseBalance(tx, playerA, currency.Copper, decimal.RequireFromString("0.20"))
	if err != nil {
		t.Fatalf("increase balance: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.GetBalance(ctx, playerA, currency.Copper)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	// Exact fixed-point addition, no float drift.
	if !got.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("want 0.30, got %s", got)
	}
}

func TestAccounts_DecreaseBalance_ConcurrentGuard(t *testing.T) {
	t.Parallel()

	db := sqlitetest.NewTestDB(t)
	repo := New(db)

	sqlitetest.Seed(t, db, playerA, "coin", "1000.00")

	amount := decimal.RequireFromString("1000.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	success, insufficient := 0, 0

	worker := func(name string) {
		defer wg.Done()

		ctx := context.Background()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Errorf("[%s] begin tx: %v", name, err)
			return
		}
		defer func() { _ = tx.Rollback() }()

		// Immediate write transactions serialize here; the second worker
		// waits for the first to commit.
		_, err = repo.LockAndGetBalance(tx, playerA, currency.Coin)
		if err != nil {
			t.Errorf("[%s] lock balance: %v", name, err)
			return
		}

		err = repo.DecreaseBalance(tx, playerA, currency.Coin, amount)
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := repo.GetBalance(ctx, playerA, currency.Coin)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("final balance: want 0, got %s", got)
	}
}
