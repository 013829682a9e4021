package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertCertification = `-- name: UpsertCertification :one
INSERT INTO certifications (theme_id)
VALUES ($1)
ON CONFLICT (theme_id) DO UPDATE SET created_at = now()
RETURNING id, theme_id, created_at, (xmax = 0) AS inserted
`

type UpsertCertificationRow struct {
	ID        int64              `json:"id"`
	ThemeID   int64              `json:"theme_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	Inserted  bool               `json:"inserted"`
}

func (q *Queries) UpsertCertification(ctx context.Context, themeID int64) (UpsertCertificationRow, error) {
	row := q.db.QueryRow(ctx, upsertCertification, themeID)
	var i UpsertCertificationRow
	err := row.Scan(
		&i.ID,
		&i.ThemeID,
		&i.CreatedAt,
		&i.Inserted,
	)
	return i, err
}

const createCertificationIfAbsent = `-- name: CreateCertificationIfAbsent :one
INSERT INTO certifications (theme_id)
VALUES ($1)
ON CONFLICT (theme_id) DO NOTHING
RETURNING id, theme_id, created_at
`

func (q *Queries) CreateCertificationIfAbsent(ctx context.Context, themeID int64) (Certification, error) {
	row := q.db.QueryRow(ctx, createCertificationIfAbsent, themeID)
	var i Certification
	err := row.Scan(&i.ID, &i.ThemeID, &i.CreatedAt)
	return i, err
}

const listCertifications = `-- name: ListCertifications :many
SELECT id, theme_id, created_at FROM certifications
ORDER BY created_at DESC, id
`

func (q *Queries) ListCertifications(ctx context.Context) ([]Certification, error) {
	rows, err := q.db.Query(ctx, listCertifications)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Certification
	for rows.Next() {
		var i Certification
		if err := rows.Scan(&i.ID, &i.ThemeID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
