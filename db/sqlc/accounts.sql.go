package db

import (
	"context"

	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `id, user_id, username, full_name, balance, pending_balance, send_limit, receive_limit, withdraw_limit, deposit_limit, allow_send, allow_receive, allow_withdraw, allow_deposit, allow_request_me, status, currency, version, created_at, updated_at`

func scanAccount(row rowScanner) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Username,
		&i.FullName,
		&i.Balance,
		&i.PendingBalance,
		&i.SendLimit,
		&i.ReceiveLimit,
		&i.WithdrawLimit,
		&i.DepositLimit,
		&i.AllowSend,
		&i.AllowReceive,
		&i.AllowWithdraw,
		&i.AllowDeposit,
		&i.AllowRequestMe,
		&i.Status,
		&i.Currency,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1 LIMIT 1
`

func (q *Queries) GetAccountByID(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByID, id)
	return scanAccount(row)
}

const getAccountByUsername = `-- name: GetAccountByUsername :one
SELECT ` + accountColumns + ` FROM accounts
WHERE username = $1 LIMIT 1
`

func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByUsername, username)
	return scanAccount(row)
}

const getAccountForUpdate = `-- name: GetAccountForUpdate :one
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1 LIMIT 1
FOR NO KEY UPDATE
`

func (q *Queries) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountForUpdate, id)
	return scanAccount(row)
}

const updateAccountBalances = `-- name: UpdateAccountBalances :one
UPDATE accounts
SET balance = $2, pending_balance = $3, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $4
RETURNING ` + accountColumns + `
`

type UpdateAccountBalancesParams struct {
	ID             int64           `json:"id"`
	Balance        decimal.Decimal `json:"balance"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	Version        int64           `json:"version"`
}

// UpdateAccountBalances returns sql.ErrNoRows when the row moved past Version.
func (q *Queries) UpdateAccountBalances(ctx context.Context, arg UpdateAccountBalancesParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, updateAccountBalances,
		arg.ID,
		arg.Balance,
		arg.PendingBalance,
		arg.Version,
	)
	return scanAccount(row)
}

const updateAccountStatus = `-- name: UpdateAccountStatus :one
UPDATE accounts
SET status = $2, version = version + 1, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns + `
`

type UpdateAccountStatusParams struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdateAccountStatus(ctx context.Context, arg UpdateAccountStatusParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, updateAccountStatus, arg.ID, arg.Status)
	return scanAccount(row)
}
