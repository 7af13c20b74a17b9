// Package dbx holds the small DB plumbing shared by the entity
// repositories: the DBTX interface they are built over, and a transaction
// helper for multi-step mutations such as the inbox drain.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the marketplace repositories use.
// Both *sql.DB and *sql.Tx satisfy it, so a repository works the same
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with the transactional handle, and
// commits on success or rolls back on error/panic. Panics are rethrown.
// Callers pass the tx down as a DBTX, so repository code never branches on
// whether it is inside a transaction.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
