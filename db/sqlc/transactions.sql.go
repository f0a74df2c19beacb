package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const transactionColumns = `id, transaction_id, from_account, to_account, sender_full_name, receiver_full_name, amount, delivered_amount, voided_amount, transaction_type, currency, status, location, signature, device_id, ip_address, session_id, platform, is_recurring, previous_balance, fraud_score, speed, distance, features, created_at, updated_at`

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.FromAccount,
		&i.ToAccount,
		&i.SenderFullName,
		&i.ReceiverFullName,
		&i.Amount,
		&i.DeliveredAmount,
		&i.VoidedAmount,
		&i.TransactionType,
		&i.Currency,
		&i.Status,
		&i.Location,
		&i.Signature,
		&i.DeviceID,
		&i.IpAddress,
		&i.SessionID,
		&i.Platform,
		&i.IsRecurring,
		&i.PreviousBalance,
		&i.FraudScore,
		&i.Speed,
		&i.Distance,
		&i.Features,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
  transaction_id, from_account, to_account, sender_full_name, receiver_full_name, amount, delivered_amount, transaction_type, currency, status, location, signature, device_id, ip_address, session_id, platform, is_recurring, previous_balance, fraud_score, speed, distance, features
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
)
RETURNING ` + transactionColumns + `
`

type CreateTransactionParams struct {
	TransactionID    string                `json:"transaction_id"`
	FromAccount      int64                 `json:"from_account"`
	ToAccount        int64                 `json:"to_account"`
	SenderFullName   string                `json:"sender_full_name"`
	ReceiverFullName string                `json:"receiver_full_name"`
	Amount           decimal.Decimal       `json:"amount"`
	DeliveredAmount  decimal.Decimal       `json:"delivered_amount"`
	TransactionType  string                `json:"transaction_type"`
	Currency         string                `json:"currency"`
	Status           string                `json:"status"`
	Location         pqtype.NullRawMessage `json:"location"`
	Signature        string                `json:"signature"`
	DeviceID         string                `json:"device_id"`
	IpAddress        string                `json:"ip_address"`
	SessionID        string                `json:"session_id"`
	Platform         string                `json:"platform"`
	IsRecurring      bool                  `json:"is_recurring"`
	PreviousBalance  decimal.Decimal       `json:"previous_balance"`
	FraudScore       float64               `json:"fraud_score"`
	Speed            float64               `json:"speed"`
	Distance         float64               `json:"distance"`
	Features         pqtype.NullRawMessage `json:"features"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.TransactionID,
		arg.FromAccount,
		arg.ToAccount,
		arg.SenderFullName,
		arg.ReceiverFullName,
		arg.Amount,
		arg.DeliveredAmount,
		arg.TransactionType,
		arg.Currency,
		arg.Status,
		arg.Location,
		arg.Signature,
		arg.DeviceID,
		arg.IpAddress,
		arg.SessionID,
		arg.Platform,
		arg.IsRecurring,
		arg.PreviousBalance,
		arg.FraudScore,
		arg.Speed,
		arg.Distance,
		arg.Features,
	)
	return scanTransaction(row)
}

const getTransactionByTransactionID = `-- name: GetTransactionByTransactionID :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE transaction_id = $1 LIMIT 1
`

func (q *Queries) GetTransactionByTransactionID(ctx context.Context, transactionID string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransactionByTransactionID, transactionID)
	return scanTransaction(row)
}

const transitionTransactionStatus = `-- name: TransitionTransactionStatus :one
UPDATE transactions
SET status = $3, updated_at = now()
WHERE transaction_id = $1 AND status = $2
RETURNING ` + transactionColumns + `
`

type TransitionTransactionStatusParams struct {
	TransactionID string `json:"transaction_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
}

// TransitionTransactionStatus returns sql.ErrNoRows when the row is not in
// FromStatus, which makes every transition a compare-and-set.
func (q *Queries) TransitionTransactionStatus(ctx context.Context, arg TransitionTransactionStatusParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, transitionTransactionStatus, arg.TransactionID, arg.FromStatus, arg.ToStatus)
	return scanTransaction(row)
}

const updateTransactionLocation = `-- name: UpdateTransactionLocation :exec
UPDATE transactions
SET location = $2, updated_at = now()
WHERE transaction_id = $1
`

type UpdateTransactionLocationParams struct {
	TransactionID string                `json:"transaction_id"`
	Location      pqtype.NullRawMessage `json:"location"`
}

func (q *Queries) UpdateTransactionLocation(ctx context.Context, arg UpdateTransactionLocationParams) error {
	_, err := q.db.ExecContext(ctx, updateTransactionLocation, arg.TransactionID, arg.Location)
	return err
}

const updateTransactionFraud = `-- name: UpdateTransactionFraud :one
UPDATE transactions
SET status = $2, fraud_score = $3, features = $4, updated_at = now()
WHERE transaction_id = $1
RETURNING ` + transactionColumns + `
`

type UpdateTransactionFraudParams struct {
	TransactionID string                `json:"transaction_id"`
	Status        string                `json:"status"`
	FraudScore    float64               `json:"fraud_score"`
	Features      pqtype.NullRawMessage `json:"features"`
}

func (q *Queries) UpdateTransactionFraud(ctx context.Context, arg UpdateTransactionFraudParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransactionFraud, arg.TransactionID, arg.Status, arg.FraudScore, arg.Features)
	return scanTransaction(row)
}

const getLastTransactionFromAccount = `-- name: GetLastTransactionFromAccount :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE from_account = $1 AND created_at >= $2
ORDER BY created_at DESC, id DESC
LIMIT 1
`

type GetLastTransactionFromAccountParams struct {
	FromAccount int64     `json:"from_account"`
	Since       time.Time `json:"since"`
}

func (q *Queries) GetLastTransactionFromAccount(ctx context.Context, arg GetLastTransactionFromAccountParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getLastTransactionFromAccount, arg.FromAccount, arg.Since)
	return scanTransaction(row)
}

const getEarliestTransactionByFeatures = `-- name: GetEarliestTransactionByFeatures :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE features = $1
ORDER BY created_at ASC, id ASC
LIMIT 1
`

func (q *Queries) GetEarliestTransactionByFeatures(ctx context.Context, features pqtype.NullRawMessage) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getEarliestTransactionByFeatures, features)
	return scanTransaction(row)
}

const listTrainingTransactions = `-- name: ListTrainingTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE status IN ('completed', 'suspicious') AND created_at > $1 AND features IS NOT NULL
ORDER BY id DESC
LIMIT $2
`

type ListTrainingTransactionsParams struct {
	After time.Time `json:"after"`
	Limit int32     `json:"limit"`
}

func (q *Queries) ListTrainingTransactions(ctx context.Context, arg ListTrainingTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTrainingTransactions, arg.After, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const countTrainingTransactions = `-- name: CountTrainingTransactions :one
SELECT count(*) FROM transactions
WHERE status IN ('completed', 'suspicious') AND created_at > $1
`

func (q *Queries) CountTrainingTransactions(ctx context.Context, after time.Time) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTrainingTransactions, after)
	var count int64
	err := row.Scan(&count)
	return count, err
}
