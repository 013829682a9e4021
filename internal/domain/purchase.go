package domain

import (
	"errors"
	"time"
)

// Purchase records that a user owns exactly one lesson or one cursus.
// For lesson purchases, Validated tracks completion of that lesson.
type Purchase struct {
	ID        int64
	UserID    int64
	LessonID  *int64
	CursusID  *int64
	Validated bool
	CreatedAt time.Time

	// CheckoutSessionID is the gateway session that paid for this purchase.
	CheckoutSessionID string
}

var errPurchaseTarget = errors.New("purchase must reference exactly one of lesson or cursus")

// NewLessonPurchase builds an unvalidated purchase of a single lesson.
func NewLessonPurchase(userID, lessonID int64) Purchase {
	return Purchase{UserID: userID, LessonID: &lessonID}
}

// NewCursusPurchase builds a purchase of a whole cursus.
func NewCursusPurchase(userID, cursusID int64) Purchase {
	return Purchase{UserID: userID, CursusID: &cursusID}
}

// Validate checks the purchase targets exactly one item.
func (p Purchase) Validate() error {
	if (p.LessonID == nil) == (p.CursusID == nil) {
		return errPurchaseTarget
	}
	return nil
}

// IsLesson reports whether the purchase covers a single lesson.
func (p Purchase) IsLesson() bool {
	return p.LessonID != nil
}

// PurchaseView is a purchase joined with the display name of what was bought.
type PurchaseView struct {
	Purchase
	Kind ItemKind
	Name string
}
