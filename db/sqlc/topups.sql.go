package db

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const getTopUpCompany = `-- name: GetTopUpCompany :one
SELECT id, name, logo, status FROM topups_companies
WHERE id = $1 LIMIT 1
`

func (q *Queries) GetTopUpCompany(ctx context.Context, id int64) (TopupsCompany, error) {
	row := q.db.QueryRowContext(ctx, getTopUpCompany, id)
	var i TopupsCompany
	err := row.Scan(&i.ID, &i.Name, &i.Logo, &i.Status)
	return i, err
}

const upsertTopUpPhone = `-- name: UpsertTopUpPhone :one
INSERT INTO topups_phones (user_id, company_id, full_name, phone)
VALUES ($1, $2, $3, $4)
ON CONFLICT (phone, user_id) DO UPDATE
SET company_id = EXCLUDED.company_id, full_name = EXCLUDED.full_name, last_updated = now()
RETURNING id, user_id, company_id, full_name, phone, last_updated
`

type UpsertTopUpPhoneParams struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
}

func (q *Queries) UpsertTopUpPhone(ctx context.Context, arg UpsertTopUpPhoneParams) (TopupsPhone, error) {
	row := q.db.QueryRowContext(ctx, upsertTopUpPhone, arg.UserID, arg.CompanyID, arg.FullName, arg.Phone)
	var i TopupsPhone
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CompanyID,
		&i.FullName,
		&i.Phone,
		&i.LastUpdated,
	)
	return i, err
}

const topupColumns = `id, reference_id, phone_id, company_id, user_id, amount, status, location, created_at, updated_at`

func scanTopup(row rowScanner) (Topup, error) {
	var i Topup
	err := row.Scan(
		&i.ID,
		&i.ReferenceID,
		&i.PhoneID,
		&i.CompanyID,
		&i.UserID,
		&i.Amount,
		&i.Status,
		&i.Location,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTopUp = `-- name: CreateTopUp :one
INSERT INTO topups (reference_id, phone_id, company_id, user_id, amount, status, location)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + topupColumns + `
`

type CreateTopUpParams struct {
	ReferenceID string                `json:"reference_id"`
	PhoneID     int64                 `json:"phone_id"`
	CompanyID   int64                 `json:"company_id"`
	UserID      int64                 `json:"user_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Status      string                `json:"status"`
	Location    pqtype.NullRawMessage `json:"location"`
}

func (q *Queries) CreateTopUp(ctx context.Context, arg CreateTopUpParams) (Topup, error) {
	row := q.db.QueryRowContext(ctx, createTopUp,
		arg.ReferenceID,
		arg.PhoneID,
		arg.CompanyID,
		arg.UserID,
		arg.Amount,
		arg.Status,
		arg.Location,
	)
	return scanTopup(row)
}

const getTopUpByReference = `-- name: GetTopUpByReference :one
SELECT ` + topupColumns + ` FROM topups
WHERE reference_id = $1 LIMIT 1
`

func (q *Queries) GetTopUpByReference(ctx context.Context, referenceID string) (Topup, error) {
	row := q.db.QueryRowContext(ctx, getTopUpByReference, referenceID)
	return scanTopup(row)
}

const transitionTopUpStatus = `-- name: TransitionTopUpStatus :one
UPDATE topups
SET status = $3, updated_at = now()
WHERE reference_id = $1 AND status = $2
RETURNING ` + topupColumns + `
`

type TransitionTopUpStatusParams struct {
	ReferenceID string `json:"reference_id"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
}

func (q *Queries) TransitionTopUpStatus(ctx context.Context, arg TransitionTopUpStatusParams) (Topup, error) {
	row := q.db.QueryRowContext(ctx, transitionTopUpStatus, arg.ReferenceID, arg.FromStatus, arg.ToStatus)
	return scanTopup(row)
}
