package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

// querier is the subset of database/sql satisfied by both *sql.DB and *sql.Tx,
// letting every repository run standalone or inside a service-owned transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type sqlTxRunner struct{ db *sql.DB }

// NewTxRunner returns a TxRunner backed by the connection pool.
func NewTxRunner(db *sql.DB) TxRunner { return &sqlTxRunner{db: db} }

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Internal(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.Internal(err, "commit transaction")
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps storage errors onto the application taxonomy so no raw
// driver error escapes the module.
func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("%s", notFoundMsg)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return apperror.Conflict("duplicate value: %s", pqErr.Detail)
		case pgForeignKeyViolation:
			return apperror.Conflict("still referenced by other records")
		case pgCheckViolation:
			return apperror.InvalidOperation("constraint violated: %s", pqErr.Constraint)
		}
	}
	return apperror.Internal(err, "database error")
}
