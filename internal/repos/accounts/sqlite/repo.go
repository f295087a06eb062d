// Package sqlite implements the accounts contract on a SQLite file.
//
// Balance columns are TEXT holding fixed two-decimal strings and all
// arithmetic happens in Go under the transaction's write lock, so amounts
// stay exact instead of round-tripping through SQLite's float affinity.
// Connections are opened with _txlock=immediate, which makes every write
// transaction take the database write lock at BEGIN; a transaction-scoped
// read here is therefore already serialized against concurrent writers.
package sqlite

import (
	"database/sql"

	"github.com/mcengine/currency/internal/repos/accounts"
)

type accountsRepo struct{ db *sql.DB }

func New(db *sql.DB) accounts.Accounts {
	return &accountsRepo{db: db}
}
