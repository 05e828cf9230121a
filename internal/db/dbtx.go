package db

import (
	"context"
	"database/sql"
)

// DBTX is what the plan, skill, progress, template and user repositories
// query through. A *sql.DB serves reads such as reports and pending queues;
// a *sql.Tx serves the writes of one plan during template sync.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
