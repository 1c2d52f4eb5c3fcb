package repository

import (
	"context"
	"database/sql"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/pkg/database"
)

type contextKey string

const txContextKey contextKey = "tx"

// WithTx returns a context carrying the transaction. Repositories called
// with it execute against the transaction instead of the pool.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey, tx)
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the transaction from the context when present,
// falling back to the pool.
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txContextKey).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TxManager implements port.TransactionManager over the sqlite pool.
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *database.DB) port.TransactionManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn inside one transaction, committing on nil and
// rolling back on error or panic.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithTransaction(func(tx *sql.Tx) error {
		return fn(WithTx(ctx, tx))
	})
}

var _ port.TransactionManager = (*TxManager)(nil)
