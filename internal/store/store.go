// Package store is the PostgreSQL implementation of the repository contracts.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	*scope
	db     *sql.DB
	txOpts database.TxOptions
}

var _ repository.Store = (*Store)(nil)

func New(db *sql.DB, maxRetries int) *Store {
	return &Store{
		scope:  &scope{q: db},
		db:     db,
		txOpts: database.CheckoutTxOptions(maxRetries),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx retries fn on serialization failures and deadlocks, so fn must not
// have side effects outside the transaction.
func (s *Store) InTx(ctx context.Context, fn func(repository.Scope) error) error {
	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		return fn(&scope{q: tx})
	})
}

// ReadTx runs fn once in a read-only repeatable-read transaction.
func (s *Store) ReadTx(ctx context.Context, fn func(repository.Scope) error) error {
	return database.WithTransaction(ctx, s.db, database.ReadOnlyTxOptions(), func(tx *sql.Tx) error {
		return fn(&scope{q: tx})
	})
}

type scope struct {
	q DBTX
}

func (s *scope) Books() repository.Books           { return &bookRepo{q: s.q} }
func (s *scope) Categories() repository.Categories { return &categoryRepo{q: s.q} }
func (s *scope) Accounts() repository.Accounts     { return &accountRepo{q: s.q} }
func (s *scope) Carts() repository.Carts           { return &cartRepo{q: s.q} }
func (s *scope) Orders() repository.Orders         { return &orderRepo{q: s.q} }
func (s *scope) Reports() repository.Reports       { return &reportRepo{q: s.q} }

func rowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
