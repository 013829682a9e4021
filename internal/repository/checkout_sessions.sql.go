package repository

import (
	"context"
)

const createCheckoutSession = `-- name: CreateCheckoutSession :one
INSERT INTO checkout_sessions (id, user_id, amount_total, currency)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, amount_total, currency, created_at
`

type CreateCheckoutSessionParams struct {
	ID          string `json:"id"`
	UserID      int64  `json:"user_id"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
}

func (q *Queries) CreateCheckoutSession(ctx context.Context, arg CreateCheckoutSessionParams) (CheckoutSession, error) {
	row := q.db.QueryRow(ctx, createCheckoutSession,
		arg.ID,
		arg.UserID,
		arg.AmountTotal,
		arg.Currency,
	)
	var i CheckoutSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AmountTotal,
		&i.Currency,
		&i.CreatedAt,
	)
	return i, err
}

const getCheckoutSession = `-- name: GetCheckoutSession :one
SELECT id, user_id, amount_total, currency, created_at FROM checkout_sessions
WHERE id = $1
`

func (q *Queries) GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	row := q.db.QueryRow(ctx, getCheckoutSession, id)
	var i CheckoutSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AmountTotal,
		&i.Currency,
		&i.CreatedAt,
	)
	return i, err
}

const listPurchasesByCheckoutSession = `-- name: ListPurchasesByCheckoutSession :many
SELECT id, user_id, lesson_id, cursus_id, validated, checkout_session_id, created_at FROM purchases
WHERE checkout_session_id = $1
ORDER BY id
`

func (q *Queries) ListPurchasesByCheckoutSession(ctx context.Context, checkoutSessionID string) ([]Purchase, error) {
	rows, err := q.db.Query(ctx, listPurchasesByCheckoutSession, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Purchase
	for rows.Next() {
		var i Purchase
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.LessonID,
			&i.CursusID,
			&i.Validated,
			&i.CheckoutSessionID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
