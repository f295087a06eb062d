package sqlite

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
		INSERT OR IGNORE INTO currency (player_uuid, coin, copper, silver, gold)
		VALUES (?, '0.00', '0.00', '0.00', '0.00')
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
	return lockedBalance(tx, playerID, t)
}

func (r *accountsRepo) IncreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error {
	cur, err := lockedBalance(tx, playerID, t)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	err = setBalance(tx, playerID, t, cur.Add(amount))
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	return nil
}

func (r *accountsRepo) DecreaseBalance(tx *sql.Tx, playerID string, t currency.Type, amount decimal.Decimal) error {
	cur, err := lockedBalance(tx, playerID, t)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	if cur.LessThan(amount) {
		return accounts.ErrInsufficientFunds
	}

	err = setBalance(tx, playerID, t, cur.Sub(amount))
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	return nil
}

func lockedBalance(tx *sql.Tx, playerID string, t currency.Type) (decimal.Decimal, error) {
	col, err := t.Column()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal

	err = tx.QueryRow(
		fmt.Sprintf(`SELECT %s FROM currency WHERE player_uuid = ?`, col),
		playerID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, accounts.ErrAccountNotFound
		}

		return decimal.Zero, fmt.Errorf("locked balance read: %w", err)
	}

	return balance, nil
}

func setBalance(tx *sql.Tx, playerID string, t currency.Type, value decimal.Decimal) error {
	col, err := t.Column()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		fmt.Sprintf(`UPDATE currency SET %s = ? WHERE player_uuid = ?`, col),
		value.StringFixed(2), playerID,
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}
