// Package db provides transaction plumbing and query scopes shared by the
// repositories.
package db

import (
	"context"

	"gorm.io/gorm"
)

// Provider hands out the current gorm handle. The handle may change across
// reconnects, so repositories ask for it per operation.
type Provider interface {
	Get() (*gorm.DB, error)
}

// txKey is the context key for storing transaction.
type txKey struct{}

// TransactionManager runs functions inside a database transaction.
type TransactionManager struct {
	provider Provider
}

func NewTransactionManager(provider Provider) *TransactionManager {
	return &TransactionManager{provider: provider}
}

// RunInTransaction executes fn within a transaction. A transaction already on
// ctx is reused so nested calls join the outer unit.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	conn, err := tm.provider.Get()
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetTxFromContext returns the transaction on ctx, or a fresh session from
// provider when there is none.
func GetTxFromContext(ctx context.Context, provider Provider) (*gorm.DB, error) {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx, nil
	}
	conn, err := provider.Get()
	if err != nil {
		return nil, err
	}
	return conn.WithContext(ctx), nil
}
