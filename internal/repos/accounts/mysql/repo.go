// Package mysql implements the accounts contract on MySQL. Balance columns
// are DECIMAL(10,2); arithmetic happens in SQL, which is exact for DECIMAL,
// and row locks come from SELECT ... FOR UPDATE.
package mysql

import (
	"database/sql"

	"github.com/mcengine/currency/internal/repos/accounts"
)

type accountsRepo struct{ db *sql.DB }

func New(db *sql.DB) accounts.Accounts {
	return &accountsRepo{db: db}
}
