package db

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const queueJobColumns = `id, job_id, repeat_job_key, user_id, job_name, queue_type, job_time, amount, status, repeated_count, last_occurrence_id, data, reference_data, signature, created_at, updated_at`

func scanQueueJob(row rowScanner) (QueueJob, error) {
	var i QueueJob
	err := row.Scan(
		&i.ID,
		&i.JobID,
		&i.RepeatJobKey,
		&i.UserID,
		&i.JobName,
		&i.QueueType,
		&i.JobTime,
		&i.Amount,
		&i.Status,
		&i.RepeatedCount,
		&i.LastOccurrenceID,
		&i.Data,
		&i.ReferenceData,
		&i.Signature,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getQueueJobByRepeatKey = `-- name: GetQueueJobByRepeatKey :one
SELECT ` + queueJobColumns + ` FROM queues
WHERE repeat_job_key = $1 LIMIT 1
`

func (q *Queries) GetQueueJobByRepeatKey(ctx context.Context, repeatJobKey string) (QueueJob, error) {
	row := q.db.QueryRowContext(ctx, getQueueJobByRepeatKey, repeatJobKey)
	return scanQueueJob(row)
}

const createQueueJob = `-- name: CreateQueueJob :one
INSERT INTO queues (
  job_id, repeat_job_key, user_id, job_name, queue_type, job_time, amount, status, data, reference_data, signature
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING ` + queueJobColumns + `
`

type CreateQueueJobParams struct {
	JobID         string                `json:"job_id"`
	RepeatJobKey  string                `json:"repeat_job_key"`
	UserID        int64                 `json:"user_id"`
	JobName       string                `json:"job_name"`
	QueueType     string                `json:"queue_type"`
	JobTime       string                `json:"job_time"`
	Amount        decimal.Decimal       `json:"amount"`
	Status        string                `json:"status"`
	Data          string                `json:"data"`
	ReferenceData pqtype.NullRawMessage `json:"reference_data"`
	Signature     string                `json:"signature"`
}

func (q *Queries) CreateQueueJob(ctx context.Context, arg CreateQueueJobParams) (QueueJob, error) {
	row := q.db.QueryRowContext(ctx, createQueueJob,
		arg.JobID,
		arg.RepeatJobKey,
		arg.UserID,
		arg.JobName,
		arg.QueueType,
		arg.JobTime,
		arg.Amount,
		arg.Status,
		arg.Data,
		arg.ReferenceData,
		arg.Signature,
	)
	return scanQueueJob(row)
}

const updateQueueJobSchedule = `-- name: UpdateQueueJobSchedule :one
UPDATE queues
SET job_name = $2, job_time = $3, amount = $4, data = $5, signature = $6, status = 'active', updated_at = now()
WHERE repeat_job_key = $1
RETURNING ` + queueJobColumns + `
`

type UpdateQueueJobScheduleParams struct {
	RepeatJobKey string          `json:"repeat_job_key"`
	JobName      string          `json:"job_name"`
	JobTime      string          `json:"job_time"`
	Amount       decimal.Decimal `json:"amount"`
	Data         string          `json:"data"`
	Signature    string          `json:"signature"`
}

func (q *Queries) UpdateQueueJobSchedule(ctx context.Context, arg UpdateQueueJobScheduleParams) (QueueJob, error) {
	row := q.db.QueryRowContext(ctx, updateQueueJobSchedule,
		arg.RepeatJobKey,
		arg.JobName,
		arg.JobTime,
		arg.Amount,
		arg.Data,
		arg.Signature,
	)
	return scanQueueJob(row)
}

const updateQueueJobStatus = `-- name: UpdateQueueJobStatus :one
UPDATE queues
SET status = $2,
    repeated_count = CASE WHEN $3::boolean THEN repeated_count + 1 ELSE repeated_count END,
    updated_at = now()
WHERE repeat_job_key = $1
RETURNING ` + queueJobColumns + `
`

type UpdateQueueJobStatusParams struct {
	RepeatJobKey  string `json:"repeat_job_key"`
	Status        string `json:"status"`
	IncrementRuns bool   `json:"increment_runs"`
}

func (q *Queries) UpdateQueueJobStatus(ctx context.Context, arg UpdateQueueJobStatusParams) (QueueJob, error) {
	row := q.db.QueryRowContext(ctx, updateQueueJobStatus, arg.RepeatJobKey, arg.Status, arg.IncrementRuns)
	return scanQueueJob(row)
}

const incrementQueueJobRepeatedCount = `-- name: IncrementQueueJobRepeatedCount :one
UPDATE queues
SET repeated_count = repeated_count + 1, last_occurrence_id = $2, updated_at = now()
WHERE repeat_job_key = $1 AND last_occurrence_id <> $2
RETURNING ` + queueJobColumns + `
`

type IncrementQueueJobRepeatedCountParams struct {
	RepeatJobKey string `json:"repeat_job_key"`
	OccurrenceID string `json:"occurrence_id"`
}

func (q *Queries) IncrementQueueJobRepeatedCount(ctx context.Context, arg IncrementQueueJobRepeatedCountParams) (QueueJob, error) {
	row := q.db.QueryRowContext(ctx, incrementQueueJobRepeatedCount, arg.RepeatJobKey, arg.OccurrenceID)
	return scanQueueJob(row)
}

const listQueueJobsByUser = `-- name: ListQueueJobsByUser :many
SELECT ` + queueJobColumns + ` FROM queues
WHERE user_id = $1 AND queue_type = $2 AND status = 'active'
ORDER BY id DESC
`

type ListQueueJobsByUserParams struct {
	UserID    int64  `json:"user_id"`
	QueueType string `json:"queue_type"`
}

func (q *Queries) ListQueueJobsByUser(ctx context.Context, arg ListQueueJobsByUserParams) ([]QueueJob, error) {
	rows, err := q.db.QueryContext(ctx, listQueueJobsByUser, arg.UserID, arg.QueueType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []QueueJob{}
	for rows.Next() {
		i, err := scanQueueJob(rows)
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
