package repository

import (
	"context"
)

const getTheme = `-- name: GetTheme :one
SELECT id, name, image, valid FROM themes
WHERE id = $1
`

func (q *Queries) GetTheme(ctx context.Context, id int64) (Theme, error) {
	row := q.db.QueryRow(ctx, getTheme, id)
	var i Theme
	err := row.Scan(&i.ID, &i.Name, &i.Image, &i.Valid)
	return i, err
}

const lockTheme = `-- name: LockTheme :one
SELECT id, name, image, valid FROM themes
WHERE id = $1
FOR UPDATE
`

func (q *Queries) LockTheme(ctx context.Context, id int64) (Theme, error) {
	row := q.db.QueryRow(ctx, lockTheme, id)
	var i Theme
	err := row.Scan(&i.ID, &i.Name, &i.Image, &i.Valid)
	return i, err
}

const listThemes = `-- name: ListThemes :many
SELECT id, name, image, valid FROM themes
ORDER BY id
`

func (q *Queries) ListThemes(ctx context.Context) ([]Theme, error) {
	rows, err := q.db.Query(ctx, listThemes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Theme
	for rows.Next() {
		var i Theme
		if err := rows.Scan(&i.ID, &i.Name, &i.Image, &i.Valid); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setThemeValid = `-- name: SetThemeValid :exec
UPDATE themes SET valid = true
WHERE id = $1
`

func (q *Queries) SetThemeValid(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, setThemeValid, id)
	return err
}

const getCursus = `-- name: GetCursus :one
SELECT id, theme_id, name, price, validated FROM cursus
WHERE id = $1
`

func (q *Queries) GetCursus(ctx context.Context, id int64) (Cursus, error) {
	row := q.db.QueryRow(ctx, getCursus, id)
	var i Cursus
	err := row.Scan(&i.ID, &i.ThemeID, &i.Name, &i.Price, &i.Validated)
	return i, err
}

const listCursus = `-- name: ListCursus :many
SELECT id, theme_id, name, price, validated FROM cursus
ORDER BY theme_id, id
`

func (q *Queries) ListCursus(ctx context.Context) ([]Cursus, error) {
	rows, err := q.db.Query(ctx, listCursus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Cursus
	for rows.Next() {
		var i Cursus
		if err := rows.Scan(&i.ID, &i.ThemeID, &i.Name, &i.Price, &i.Validated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setCursusValidated = `-- name: SetCursusValidated :exec
UPDATE cursus SET validated = true
WHERE id = $1
`

func (q *Queries) SetCursusValidated(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, setCursusValidated, id)
	return err
}

const countCursusInTheme = `-- name: CountCursusInTheme :one
SELECT count(*) FROM cursus
WHERE theme_id = $1
`

func (q *Queries) CountCursusInTheme(ctx context.Context, themeID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countCursusInTheme, themeID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countValidatedCursusInTheme = `-- name: CountValidatedCursusInTheme :one
SELECT count(*) FROM cursus
WHERE theme_id = $1 AND validated = true
`

func (q *Queries) CountValidatedCursusInTheme(ctx context.Context, themeID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countValidatedCursusInTheme, themeID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getLesson = `-- name: GetLesson :one
SELECT id, cursus_id, name, price FROM lessons
WHERE id = $1
`

func (q *Queries) GetLesson(ctx context.Context, id int64) (Lesson, error) {
	row := q.db.QueryRow(ctx, getLesson, id)
	var i Lesson
	err := row.Scan(&i.ID, &i.CursusID, &i.Name, &i.Price)
	return i, err
}

const listLessons = `-- name: ListLessons :many
SELECT id, cursus_id, name, price FROM lessons
ORDER BY cursus_id, id
`

func (q *Queries) ListLessons(ctx context.Context) ([]Lesson, error) {
	rows, err := q.db.Query(ctx, listLessons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Lesson
	for rows.Next() {
		var i Lesson
		if err := rows.Scan(&i.ID, &i.CursusID, &i.Name, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLessonsByCursus = `-- name: ListLessonsByCursus :many
SELECT id, cursus_id, name, price FROM lessons
WHERE cursus_id = $1
ORDER BY id
`

func (q *Queries) ListLessonsByCursus(ctx context.Context, cursusID int64) ([]Lesson, error) {
	rows, err := q.db.Query(ctx, listLessonsByCursus, cursusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Lesson
	for rows.Next() {
		var i Lesson
		if err := rows.Scan(&i.ID, &i.CursusID, &i.Name, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countLessonsInCursus = `-- name: CountLessonsInCursus :one
SELECT count(*) FROM lessons
WHERE cursus_id = $1
`

func (q *Queries) CountLessonsInCursus(ctx context.Context, cursusID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countLessonsInCursus, cursusID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
