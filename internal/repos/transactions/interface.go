package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
)

// Record is one immutable row of the transfer audit log.
type Record struct {
	ID         int64
	SenderID   string
	ReceiverID string
	Currency   currency.Type
	Type       currency.TransactionType
	Amount     decimal.Decimal
	Timestamp  time.Time
	Notes      string
}

// Transactions is the append-only audit log. Rows are never updated or
// deleted once written.
type Transactions interface {
	// Append inserts one record inside the caller's transaction so the log
	// entry commits or rolls back together with the balance changes it
	// describes.
	Append(tx *sql.Tx, senderID, receiverID string, t currency.Type, tt currency.TransactionType, amount decimal.Decimal, notes string) error
	// ListByPlayer returns records where the player is sender or receiver,
	// newest first, at most limit rows.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]Record, error)
}
