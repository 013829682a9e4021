package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Certification struct {
	ID        int64              `json:"id"`
	ThemeID   int64              `json:"theme_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type CheckoutSession struct {
	ID          string             `json:"id"`
	UserID      int64              `json:"user_id"`
	AmountTotal int64              `json:"amount_total"`
	Currency    string             `json:"currency"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Cursus struct {
	ID        int64          `json:"id"`
	ThemeID   int64          `json:"theme_id"`
	Name      string         `json:"name"`
	Price     pgtype.Numeric `json:"price"`
	Validated bool           `json:"validated"`
}

type Lesson struct {
	ID       int64          `json:"id"`
	CursusID int64          `json:"cursus_id"`
	Name     string         `json:"name"`
	Price    pgtype.Numeric `json:"price"`
}

type Purchase struct {
	ID                int64              `json:"id"`
	UserID            int64              `json:"user_id"`
	LessonID          pgtype.Int8        `json:"lesson_id"`
	CursusID          pgtype.Int8        `json:"cursus_id"`
	Validated         bool               `json:"validated"`
	CheckoutSessionID pgtype.Text        `json:"checkout_session_id"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}

type Theme struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Valid bool   `json:"valid"`
}

type User struct {
	ID        int64              `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
