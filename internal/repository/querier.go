package repository

import (
	"context"
)

type Querier interface {
	CountCursusInTheme(ctx context.Context, themeID int64) (int64, error)
	CountLessonsInCursus(ctx context.Context, cursusID int64) (int64, error)
	CountValidatedCursusInTheme(ctx context.Context, themeID int64) (int64, error)
	CountValidatedLessonsInCursus(ctx context.Context, arg CountValidatedLessonsInCursusParams) (int64, error)
	// Inserts the certification unless the theme already has one.
	// Returns pgx.ErrNoRows when a certification already exists.
	CreateCertificationIfAbsent(ctx context.Context, themeID int64) (Certification, error)
	// Fails with a unique violation when the gateway session was already used.
	CreateCheckoutSession(ctx context.Context, arg CreateCheckoutSessionParams) (CheckoutSession, error)
	CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
	GetCursus(ctx context.Context, id int64) (Cursus, error)
	GetLesson(ctx context.Context, id int64) (Lesson, error)
	// Prefers an already validated row when duplicates exist.
	GetLessonPurchaseForUpdate(ctx context.Context, arg GetLessonPurchaseForUpdateParams) (Purchase, error)
	GetTheme(ctx context.Context, id int64) (Theme, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListCertifications(ctx context.Context) ([]Certification, error)
	ListCursus(ctx context.Context) ([]Cursus, error)
	ListLessons(ctx context.Context) ([]Lesson, error)
	ListLessonsByCursus(ctx context.Context, cursusID int64) ([]Lesson, error)
	ListPurchasesByCheckoutSession(ctx context.Context, checkoutSessionID string) ([]Purchase, error)
	ListPurchasesByUser(ctx context.Context, userID int64) ([]ListPurchasesByUserRow, error)
	ListThemes(ctx context.Context) ([]Theme, error)
	// Row-locks the theme for the rest of the transaction.
	LockTheme(ctx context.Context, id int64) (Theme, error)
	MarkPurchaseValidated(ctx context.Context, id int64) error
	SetCursusValidated(ctx context.Context, id int64) error
	SetThemeValid(ctx context.Context, id int64) error
	// Inserts a certification or refreshes the timestamp of the existing one.
	UpsertCertification(ctx context.Context, themeID int64) (UpsertCertificationRow, error)
}

var _ Querier = (*Queries)(nil)
