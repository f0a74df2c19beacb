package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// TxStore is what services depend on: the plain queries plus a way to run a
// group of them atomically.
type TxStore interface {
	Querier
	ExecTx(ctx context.Context, fn func(q Querier) error) error
}

type Store struct {
	*Queries
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:      db,
		Queries: New(db),
	}
}

// ExecTx runs fn inside a single database transaction. Any error from fn
// rolls everything back.
func (s *Store) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(s.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("encountered rollback error: %v (cause: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

var _ TxStore = (*Store)(nil)

// IsUniqueViolation reports whether err is a Postgres duplicate-key error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == DuplicateEntry
}

// IsSerializationFailure reports conflicts Postgres expects the client to retry.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && (pqErr.Code == SerializationFailure || pqErr.Code == DeadlockDetected)
}
