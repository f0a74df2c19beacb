package db

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const bankingColumns = `id, transaction_id, account_id, user_id, card_id, amount, transaction_type, currency, status, location, data, signature, created_at`

func scanBankingTransaction(row rowScanner) (BankingTransaction, error) {
	var i BankingTransaction
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.AccountID,
		&i.UserID,
		&i.CardID,
		&i.Amount,
		&i.TransactionType,
		&i.Currency,
		&i.Status,
		&i.Location,
		&i.Data,
		&i.Signature,
		&i.CreatedAt,
	)
	return i, err
}

const createBankingTransaction = `-- name: CreateBankingTransaction :one
INSERT INTO banking_transactions (
  transaction_id, account_id, user_id, card_id, amount, transaction_type, currency, status, location, data, signature
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING ` + bankingColumns + `
`

type CreateBankingTransactionParams struct {
	TransactionID   string                `json:"transaction_id"`
	AccountID       int64                 `json:"account_id"`
	UserID          int64                 `json:"user_id"`
	CardID          int64                 `json:"card_id"`
	Amount          decimal.Decimal       `json:"amount"`
	TransactionType string                `json:"transaction_type"`
	Currency        string                `json:"currency"`
	Status          string                `json:"status"`
	Location        pqtype.NullRawMessage `json:"location"`
	Data            pqtype.NullRawMessage `json:"data"`
	Signature       string                `json:"signature"`
}

func (q *Queries) CreateBankingTransaction(ctx context.Context, arg CreateBankingTransactionParams) (BankingTransaction, error) {
	row := q.db.QueryRowContext(ctx, createBankingTransaction,
		arg.TransactionID,
		arg.AccountID,
		arg.UserID,
		arg.CardID,
		arg.Amount,
		arg.TransactionType,
		arg.Currency,
		arg.Status,
		arg.Location,
		arg.Data,
		arg.Signature,
	)
	return scanBankingTransaction(row)
}

const getBankingTransaction = `-- name: GetBankingTransaction :one
SELECT ` + bankingColumns + ` FROM banking_transactions
WHERE transaction_id = $1 LIMIT 1
`

func (q *Queries) GetBankingTransaction(ctx context.Context, transactionID string) (BankingTransaction, error) {
	row := q.db.QueryRowContext(ctx, getBankingTransaction, transactionID)
	return scanBankingTransaction(row)
}
