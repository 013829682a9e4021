package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPurchase = `-- name: CreatePurchase :one
INSERT INTO purchases (user_id, lesson_id, cursus_id, checkout_session_id)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, lesson_id, cursus_id, validated, checkout_session_id, created_at
`

type CreatePurchaseParams struct {
	UserID            int64       `json:"user_id"`
	LessonID          pgtype.Int8 `json:"lesson_id"`
	CursusID          pgtype.Int8 `json:"cursus_id"`
	CheckoutSessionID pgtype.Text `json:"checkout_session_id"`
}

func (q *Queries) CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error) {
	row := q.db.QueryRow(ctx, createPurchase,
		arg.UserID,
		arg.LessonID,
		arg.CursusID,
		arg.CheckoutSessionID,
	)
	var i Purchase
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.LessonID,
		&i.CursusID,
		&i.Validated,
		&i.CheckoutSessionID,
		&i.CreatedAt,
	)
	return i, err
}

const getLessonPurchaseForUpdate = `-- name: GetLessonPurchaseForUpdate :one
SELECT id, user_id, lesson_id, cursus_id, validated, checkout_session_id, created_at FROM purchases
WHERE user_id = $1 AND lesson_id = $2
ORDER BY validated DESC, id
LIMIT 1
FOR UPDATE
`

type GetLessonPurchaseForUpdateParams struct {
	UserID   int64 `json:"user_id"`
	LessonID int64 `json:"lesson_id"`
}

func (q *Queries) GetLessonPurchaseForUpdate(ctx context.Context, arg GetLessonPurchaseForUpdateParams) (Purchase, error) {
	row := q.db.QueryRow(ctx, getLessonPurchaseForUpdate, arg.UserID, arg.LessonID)
	var i Purchase
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.LessonID,
		&i.CursusID,
		&i.Validated,
		&i.CheckoutSessionID,
		&i.CreatedAt,
	)
	return i, err
}

const markPurchaseValidated = `-- name: MarkPurchaseValidated :exec
UPDATE purchases SET validated = true
WHERE id = $1
`

func (q *Queries) MarkPurchaseValidated(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, markPurchaseValidated, id)
	return err
}

const countValidatedLessonsInCursus = `-- name: CountValidatedLessonsInCursus :one
SELECT count(*) FROM lessons l
WHERE l.cursus_id = $2
  AND EXISTS (
    SELECT 1 FROM purchases p
    WHERE p.lesson_id = l.id AND p.user_id = $1 AND p.validated = true
  )
`

type CountValidatedLessonsInCursusParams struct {
	UserID   int64 `json:"user_id"`
	CursusID int64 `json:"cursus_id"`
}

func (q *Queries) CountValidatedLessonsInCursus(ctx context.Context, arg CountValidatedLessonsInCursusParams) (int64, error) {
	row := q.db.QueryRow(ctx, countValidatedLessonsInCursus, arg.UserID, arg.CursusID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listPurchasesByUser = `-- name: ListPurchasesByUser :many
SELECT p.id, p.user_id, p.lesson_id, p.cursus_id, p.validated, p.created_at,
       COALESCE(l.name, c.name, '')::text AS item_name
FROM purchases p
LEFT JOIN lessons l ON l.id = p.lesson_id
LEFT JOIN cursus c ON c.id = p.cursus_id
WHERE p.user_id = $1
ORDER BY p.created_at DESC, p.id
`

type ListPurchasesByUserRow struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	LessonID  pgtype.Int8        `json:"lesson_id"`
	CursusID  pgtype.Int8        `json:"cursus_id"`
	Validated bool               `json:"validated"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	ItemName  string             `json:"item_name"`
}

func (q *Queries) ListPurchasesByUser(ctx context.Context, userID int64) ([]ListPurchasesByUserRow, error) {
	rows, err := q.db.Query(ctx, listPurchasesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPurchasesByUserRow
	for rows.Next() {
		var i ListPurchasesByUserRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.LessonID,
			&i.CursusID,
			&i.Validated,
			&i.CreatedAt,
			&i.ItemName,
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
