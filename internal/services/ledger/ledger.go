// Package ledger is the currency ledger engine: it owns every mutation of
// player balances and the transaction log, and enforces the transfer
// invariants (no negative balances, no partial transfers, one audit row per
// committed transfer) on top of the storage repos.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/config"
	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/infra/sqlutils"
	"github.com/mcengine/currency/internal/repos/accounts"
	mysqlaccounts "github.com/mcengine/currency/internal/repos/accounts/mysql"
	sqliteaccounts "github.com/mcengine/currency/internal/repos/accounts/sqlite"
	"github.com/mcengine/currency/internal/repos/transactions"
	"github.com/mcengine/currency/internal/repos/transactions/sqlstore"
)

var (
	ErrSelfTransfer  = errors.New("sender and receiver are the same player")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Schema caps transaction notes at VARCHAR(255).
const maxNoteLen = 255

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type Service struct {
	db       *sql.DB
	accounts accounts.Accounts
	txns     transactions.Transactions
}

// New wires the engine to the repo implementations for the configured
// backend.
func New(db *sql.DB, backend config.Backend) (*Service, error) {
	var acc accounts.Accounts

	switch backend {
	case config.BackendSQLite:
		acc = sqliteaccounts.New(db)
	case config.BackendMySQL:
		acc = mysqlaccounts.New(db)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, string(backend))
	}

	return &Service{
		db:       db,
		accounts: acc,
		txns:     sqlstore.New(db),
	}, nil
}

// InitAccount creates the player's account with all balances at zero.
// Safe to call on every player-session start; an existing account keeps
// its balances.
func (s *Service) InitAccount(ctx context.Context, playerID string) error {
	err := s.accounts.Create(ctx, playerID)
	if err != nil {
		return fmt.Errorf("init account: %w", err)
	}

	return nil
}

func (s *Service) HasAccount(ctx context.Context, playerID string) (bool, error) {
	exists, err := s.accounts.Exists(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("has account: %w", err)
	}

	return exists, nil
}

// GetBalance returns one denomination's balance. A player without an
// account yields accounts.ErrAccountNotFound, never a silent zero.
func (s *Service) GetBalance(ctx context.Context, playerID string, t currency.Type) (decimal.Decimal, error) {
	if !t.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %q", currency.ErrInvalidCurrency, string(t))
	}

	balance, err := s.accounts.GetBalance(ctx, playerID, t)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (s *Service) GetBalances(ctx context.Context, playerID string) (accounts.Balances, error) {
	balances, err := s.accounts.GetBalances(ctx, playerID)
	if err != nil {
		return accounts.Balances{}, fmt.Errorf("get balances: %w", err)
	}

	return balances, nil
}

// Credit adds amount to one balance. Used by the deposit/admin paths; it
// does not write a transaction record.
func (s *Service) Credit(ctx context.Context, playerID string, t currency.Type, amount decimal.Decimal) error {
	err := validateAdjustment(t, amount)
	if err != nil {
		return err
	}

	err = sqlutils.WithTxRetry(ctx, s.db, func(tx *sql.Tx) error {
		// Lock the row; also surfaces ErrAccountNotFound before mutating.
		_, err := s.accounts.LockAndGetBalance(tx, playerID, t)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		err = s.accounts.IncreaseBalance(tx, playerID, t, amount)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}

	return nil
}

// Debit removes amount from one balance. The check and the adjustment run
// in a single locked transaction so a concurrent debit cannot slip between
// them.
func (s *Service) Debit(ctx context.Context, playerID string, t currency.Type, amount decimal.Decimal) error {
	err := validateAdjustment(t, amount)
	if err != nil {
		return err
	}

	err = sqlutils.WithTxRetry(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.accounts.LockAndGetBalance(tx, playerID, t)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if balance.LessThan(amount) {
			return fmt.Errorf("pre-check debit: %w", accounts.ErrInsufficientFunds)
		}

		err = s.accounts.DecreaseBalance(tx, playerID, t, amount)
		if err != nil {
			return fmt.Errorf("decrease balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}

	return nil
}

// Transfer moves amount from sender to receiver and records one "pay"
// transaction, all inside a single storage transaction:
//
// 1) Lock both account rows, lowest player ID first.
// 2) Pre-check the sender's locked balance.
// 3) Debit sender, credit receiver.
// 4) Append the audit record.
//
// Either everything commits or nothing is observable.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID string, t currency.Type, amount decimal.Decimal, note string) error {
	if senderID == receiverID {
		return ErrSelfTransfer
	}

	err := validateAdjustment(t, amount)
	if err != nil {
		return err
	}

	if len(note) > maxNoteLen {
		note = note[:maxNoteLen]
	}

	err = sqlutils.WithTxRetry(ctx, s.db, func(tx *sql.Tx) error {
		var senderBalance decimal.Decimal

		// Lock in ID order so two opposite transfers between the same pair
		// cannot deadlock.
		for _, id := range lockOrder(senderID, receiverID) {
			balance, err := s.accounts.LockAndGetBalance(tx, id, t)
			if err != nil {
				return fmt.Errorf("lock account %s: %w", id, err)
			}

			if id == senderID {
				senderBalance = balance
			}
		}

		if senderBalance.LessThan(amount) {
			return fmt.Errorf("pre-check transfer: %w", accounts.ErrInsufficientFunds)
		}

		err := s.accounts.DecreaseBalance(tx, senderID, t, amount)
		if err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}

		err = s.accounts.IncreaseBalance(tx, receiverID, t, amount)
		if err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}

		err = s.txns.Append(tx, senderID, receiverID, t, currency.Pay, amount, note)
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	return nil
}

// History lists the player's transactions, newest first.
func (s *Service) History(ctx context.Context, playerID string, limit int) ([]transactions.Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.txns.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return records, nil
}

func validateAdjustment(t currency.Type, amount decimal.Decimal) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", currency.ErrInvalidCurrency, string(t))
	}

	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}

	return nil
}

func lockOrder(a, b string) []string {
	if b < a {
		return []string{b, a}
	}

	return []string{a, b}
}
