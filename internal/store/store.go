package store

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB and *sql.Tx the store needs. Ledger
// helpers accept it so the movement recorder can reuse them inside its
// batch transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
