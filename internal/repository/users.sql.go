package repository

import (
	"context"
)

const getUser = `-- name: GetUser :one
SELECT id, username, email, created_at FROM users
WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.CreatedAt)
	return i, err
}
