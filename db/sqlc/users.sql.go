package db

import (
	"context"
	"time"
)

const getUser = `-- name: GetUser :one
SELECT id, username, full_name, profile_image_url, created_at FROM users
WHERE id = $1 LIMIT 1
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.FullName,
		&i.ProfileImageUrl,
		&i.CreatedAt,
	)
	return i, err
}

const listActiveNotificationTokens = `-- name: ListActiveNotificationTokens :many
SELECT expo_notification_token::text FROM sessions
WHERE user_id = $1
  AND verified = true
  AND expires > $2
  AND expo_notification_token IS NOT NULL
ORDER BY id
`

type ListActiveNotificationTokensParams struct {
	UserID int64     `json:"user_id"`
	Now    time.Time `json:"now"`
}

func (q *Queries) ListActiveNotificationTokens(ctx context.Context, arg ListActiveNotificationTokensParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listActiveNotificationTokens, arg.UserID, arg.Now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		items = append(items, token)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
