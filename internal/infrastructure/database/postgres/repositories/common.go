// Package repositories implements the domain repository interfaces on top of
// pgx. Every repository joins the transaction carried by its context, if any.
package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
)

// queryExecutor abstracts *pgxpool.Pool and pgx.Tx.
type queryExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner abstracts pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// executor returns the transaction stored in ctx, or the pool.
func executor(ctx context.Context, pool *pgxpool.Pool) queryExecutor {
	if tx, ok := postgres.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique violation and returns the
// offending constraint name.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// emptyIfNil keeps TEXT[] NOT NULL columns from receiving NULL.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
