// Package postgres wires the generated queries to a pgx connection pool and
// provides the transaction boundary used by the services.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/savoir/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns the pool and hands out queries, either directly or bound to a
// transaction.
type Store struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
}

// NewStore creates a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		queries: repository.New(pool),
	}
}

// Queries returns non-transactional queries bound to the pool.
func (s *Store) Queries() repository.Querier {
	return s.queries
}

// InTx runs fn inside a read-committed transaction. The transaction is rolled
// back when fn returns an error or panics, and committed otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q repository.Querier) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// IsNotFound reports whether err means a query matched no rows.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
