package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG DOMAIN TYPES
// =============================================================================

// Theme groups cursus under a subject. A theme becomes valid once every
// cursus in it has been validated, which issues its certification.
type Theme struct {
	ID            int64
	Name          string
	Image         string
	Valid         bool
	Certification *Certification
	Cursus        []*Cursus
}

// AddCursus attaches a cursus to the theme and points it back at the theme.
func (t *Theme) AddCursus(c *Cursus) {
	c.ThemeID = t.ID
	t.Cursus = append(t.Cursus, c)
}

// AttachCertification sets the theme's certification and its back-reference.
func (t *Theme) AttachCertification(c *Certification) {
	c.ThemeID = t.ID
	t.Certification = c
}

// Cursus is a sellable ordered set of lessons.
type Cursus struct {
	ID        int64
	ThemeID   int64
	Name      string
	Price     decimal.Decimal
	Validated bool
	Lessons   []*Lesson
}

// AddLesson attaches a lesson to the cursus and points it back at the cursus.
func (c *Cursus) AddLesson(l *Lesson) {
	l.CursusID = c.ID
	c.Lessons = append(c.Lessons, l)
}

// Lesson is the smallest sellable unit. It always belongs to one cursus.
type Lesson struct {
	ID       int64
	CursusID int64
	Name     string
	Price    decimal.Decimal
}

// Certification attests that a theme was completed. At most one per theme.
type Certification struct {
	ID        int64
	ThemeID   int64
	CreatedAt time.Time
}
