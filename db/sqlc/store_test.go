package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var accountCols = []string{"id", "user_id", "username", "full_name", "balance", "pending_balance", "send_limit", "receive_limit", "withdraw_limit", "deposit_limit", "allow_send", "allow_receive", "allow_withdraw", "allow_deposit", "allow_request_me", "status", "currency", "version", "created_at", "updated_at"}

func accountRow(balance string, version int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(accountCols).AddRow(
		int64(1), int64(10), "ana", "Ana Perez", balance, balance, "50000", "50000", "50000", "50000",
		true, true, true, true, true, "active", "DOP", version, now, now,
	)
}

func TestStore_ExecTx_GivenSuccess_ThenCommits(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnRows(accountRow("60.0000", 4))
	mock.ExpectCommit()

	store := NewStore(conn)
	var got Account
	err = store.ExecTx(context.Background(), func(q Querier) error {
		var err error
		got, err = q.UpdateAccountBalances(context.Background(), UpdateAccountBalancesParams{
			ID:             1,
			Balance:        decimal.NewFromInt(60),
			PendingBalance: decimal.NewFromInt(60),
			Version:        3,
		})
		return err
	})
	if err != nil {
		t.Fatalf("ExecTx() error = %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(60)) || got.Version != 4 {
		t.Errorf("account = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_ExecTx_GivenVersionConflict_ThenRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").
		WillReturnRows(sqlmock.NewRows(accountCols))
	mock.ExpectRollback()

	store := NewStore(conn)
	err = store.ExecTx(context.Background(), func(q Querier) error {
		_, err := q.UpdateAccountBalances(context.Background(), UpdateAccountBalancesParams{ID: 1, Version: 2})
		return err
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("ExecTx() error = %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_ExecTx_GivenBeginFails_ThenReturnsError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	called := false
	err = NewStore(conn).ExecTx(context.Background(), func(q Querier) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("ExecTx() error = %v, called = %v", err, called)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: DuplicateEntry}) {
		t.Error("IsUniqueViolation(23505) = false")
	}
	if IsUniqueViolation(errors.New("x")) {
		t.Error("IsUniqueViolation(plain) = true")
	}
	if !IsSerializationFailure(&pq.Error{Code: DeadlockDetected}) {
		t.Error("IsSerializationFailure(40P01) = false")
	}
}
