package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/repos/accounts"
)

func (r *accountsRepo) Exists(ctx context.Context, playerID string) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM currency WHERE player_uuid = ?)
	`, playerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}

	return exists, nil
}

func (r *accountsRepo) Create(ctx context.Context, playerID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT IGNORE INTO currency (player_uuid, coin, copper, silver, gold)
		VALUES (?, 0, 0, 0, 0)
	`, playerID)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *accountsRepo) GetBalance(ctx context.Context, playerID string, t currency.Type) (decimal.Decimal, error) {
	col, err := t.Column()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal

	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM currency WHERE player_uuid = ?`, col),
		playerID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, accounts.ErrAccountNotFound
		}

		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (r *accountsRepo) GetBalances(ctx context.Context, playerID string) (accounts.Balances, error) {
	b := accounts.Balances{PlayerID: playerID}

	err := r.db.QueryRowContext(ctx, `
		SELECT coin, copper, silver, gold
		FROM currency
		WHERE player_uuid = ?
	`, playerID).Scan(&b.Coin, &b.Copper, &b.Silver, &b.Gold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Balances{}, accounts.ErrAccountNotFound
		}

		return accounts.Balances{}, fmt.Errorf("get balances: %w", err)
	}

	return b, nil
}

func (r *accountsRepo) LockAndGetBalance(tx *sql.Tx, playerID string, t currency.Type) (decimal.Decimal, error) {
	col, err := t.Column()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal

	err = tx.QueryRow(
		fmt.Sprintf(`SELECT %s FROM currency WHERE player_uuid = ? FOR UPDATE`, col),
		playerID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, accounts.ErrAccountNotFound
		}

		return decimal.Zero, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

func (r *accountsRepo) IncreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error {
	col, err := t.Column()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		fmt.Sprintf(`UPDATE currency SET %s = %s + ? WHERE player_uuid = ?`, col, col),
		amount.StringFixed(2), playerID,
	)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	return nil
}

func (r *accountsRepo) DecreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error {
	col, err := t.Column()
	if err != nil {
		return err
	}

	// Zero rows affected covers both a missing row and a balance below the
	// amount; callers lock and check existence first, so it reads as
	// insufficient funds here.
	res, err := tx.Exec(
		fmt.Sprintf(`
			UPDATE currency
			SET %s = %s - ?
			WHERE player_uuid = ?
			  AND %s >= ?
		`, col, col, col),
		amount.StringFixed(2), playerID, amount.StringFixed(2),
	)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrInsufficientFunds
	}

	return nil
}
