package sqlutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrStorageBusy is returned when a unit of work kept hitting transient
// lock contention and the retry budget ran out.
var ErrStorageBusy = errors.New("storage busy")

const (
	maxAttempts    = 3
	retryBaseDelay = 25 * time.Millisecond
)

// IsTransient reports whether err is lock contention worth retrying:
// SQLITE_BUSY/SQLITE_LOCKED, or MySQL deadlock (1213) / lock wait
// timeout (1205). Anything else, including context and validation errors,
// is permanent.
func IsTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1205 || mysqlErr.Number == 1213
	}

	return false
}

// WithTxRetry runs fn through WithTx, retrying the whole transaction a
// bounded number of times on transient contention. Permanent errors pass
// through on the first attempt; exhausting the budget surfaces
// ErrStorageBusy wrapping the last failure.
func WithTxRetry(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = WithTx(ctx, db, fn)
		if err == nil || !IsTransient(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-time.After(retryBaseDelay * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("%w: %v", ErrStorageBusy, err)
}
