// Package sqlstore implements the transaction log over database/sql. The
// statements use ? placeholders and identical syntax on SQLite and MySQL, so
// one implementation serves both backends.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Append(tx *sql.Tx, senderID, receiverID string, t currency.Type, tt currency.TransactionType, amount decimal.Decimal, notes string) error {
	if !t.Valid() {
		return fmt.Errorf("append transaction: %w: %q", currency.ErrInvalidCurrency, string(t))
	}

	if !tt.Valid() {
		return fmt.Errorf("append transaction: %w: %q", currency.ErrInvalidTransactionType, string(tt))
	}

	var noteVal sql.NullString
	if notes != "" {
		noteVal = sql.NullString{String: notes, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO currency_transaction
			(player_uuid_sender, player_uuid_receiver, currency_type, transaction_type, amount, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, senderID, receiverID, string(t), string(tt), amount.StringFixed(2), noteVal)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	return nil
}

func (r *transactionsRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]transactions.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, player_uuid_sender, player_uuid_receiver,
		       currency_type, transaction_type, amount, timestamp, notes
		FROM currency_transaction
		WHERE player_uuid_sender = ? OR player_uuid_receiver = ?
		ORDER BY transaction_id DESC
		LIMIT ?
	`, playerID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []transactions.Record

	for rows.Next() {
		var (
			rec      transactions.Record
			curType  string
			transTyp string
			notes    sql.NullString
		)

		err := rows.Scan(
			&rec.ID, &rec.SenderID, &rec.ReceiverID,
			&curType, &transTyp, &rec.Amount, &rec.Timestamp, &notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		rec.Currency = currency.Type(curType)
		rec.Type = currency.TransactionType(transTyp)
		rec.Notes = notes.String

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return records, nil
}
