package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrAccountNotFound = errors.New("account not found")

// Balances is a point-in-time snapshot of one player's four denominations.
type Balances struct {
	PlayerID string
	Coin     decimal.Decimal
	Copper   decimal.Decimal
	Silver   decimal.Decimal
	Gold     decimal.Decimal
}

// Get returns the balance for one denomination of the snapshot.
func (b Balances) Get(t currency.Type) decimal.Decimal {
	switch t {
	case currency.Coin:
		return b.Coin
	case currency.Copper:
		return b.Copper
	case currency.Silver:
		return b.Silver
	case currency.Gold:
		return b.Gold
	default:
		return decimal.Zero
	}
}

// Accounts is the balance-row contract the ledger engine runs on.
//
// Create and the Get* reads run on the pool; the locked read and the two
// balance mutations are transaction-scoped so the engine can cover a whole
// check-then-act sequence with one unit of work.
type Accounts interface {
	Exists(ctx context.Context, playerID string) (bool, error)
	// Create inserts a zero-balance row; inserting an existing player is a
	// no-op and not an error.
	Create(ctx context.Context, playerID string) error
	// GetBalance returns ErrAccountNotFound when no row exists, never a
	// silent zero.
	GetBalance(ctx context.Context, playerID string, t currency.Type) (decimal.Decimal, error)
	GetBalances(ctx context.Context, playerID string) (Balances, error)
	// LockAndGetBalance reads one denomination under the transaction's write
	// lock; returns ErrAccountNotFound when no row exists.
	LockAndGetBalance(tx *sql.Tx, playerID string, t currency.Type) (decimal.Decimal, error)
	IncreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error
	// DecreaseBalance refuses to drive the balance negative and returns
	// ErrInsufficientFunds instead.
	DecreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error
}
