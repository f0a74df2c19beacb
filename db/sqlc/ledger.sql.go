package db

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const ledgerColumns = `id, account_id, transaction_id, amount, currency, type, status, before_balance, after_balance, fee, latitude, longitude, anomalies, notes, created_at`

func scanLedgerEntry(row rowScanner) (LedgerEntry, error) {
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.TransactionID,
		&i.Amount,
		&i.Currency,
		&i.Type,
		&i.Status,
		&i.BeforeBalance,
		&i.AfterBalance,
		&i.Fee,
		&i.Latitude,
		&i.Longitude,
		&i.Anomalies,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const createLedgerEntry = `-- name: CreateLedgerEntry :one
INSERT INTO ledger (
  account_id, transaction_id, amount, currency, type, status, before_balance, after_balance, fee, latitude, longitude, anomalies, notes
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
RETURNING ` + ledgerColumns + `
`

type CreateLedgerEntryParams struct {
	AccountID     int64                 `json:"account_id"`
	TransactionID string                `json:"transaction_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Type          string                `json:"type"`
	Status        string                `json:"status"`
	BeforeBalance decimal.Decimal       `json:"before_balance"`
	AfterBalance  decimal.Decimal       `json:"after_balance"`
	Fee           decimal.Decimal       `json:"fee"`
	Latitude      float64               `json:"latitude"`
	Longitude     float64               `json:"longitude"`
	Anomalies     pqtype.NullRawMessage `json:"anomalies"`
	Notes         string                `json:"notes"`
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) (LedgerEntry, error) {
	row := q.db.QueryRowContext(ctx, createLedgerEntry,
		arg.AccountID,
		arg.TransactionID,
		arg.Amount,
		arg.Currency,
		arg.Type,
		arg.Status,
		arg.BeforeBalance,
		arg.AfterBalance,
		arg.Fee,
		arg.Latitude,
		arg.Longitude,
		arg.Anomalies,
		arg.Notes,
	)
	return scanLedgerEntry(row)
}

const listLedgerEntriesByTransaction = `-- name: ListLedgerEntriesByTransaction :many
SELECT ` + ledgerColumns + ` FROM ledger
WHERE transaction_id = $1
ORDER BY id
`

func (q *Queries) ListLedgerEntriesByTransaction(ctx context.Context, transactionID string) ([]LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerEntriesByTransaction, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		i, err := scanLedgerEntry(rows)
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
