package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Finalize rewrites the `?` placeholders produced by the query builder into
// postgres `$n` placeholders.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

// Transact runs fn inside a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise. Errors are wrapped with
// ErrDatabase unless they already carry another application error.
func Transact(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", appErr.ErrDatabase, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return WrapDB(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", appErr.ErrDatabase, err)
	}
	return nil
}

func WrapDB(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, appErr.ErrDatabase) || errors.Is(err, appErr.ErrNotFound) || errors.Is(err, appErr.ErrInvalid) {
		return err
	}
	return fmt.Errorf("%w: %w", appErr.ErrDatabase, err)
}
