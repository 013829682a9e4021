package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

// ItemKind identifies which catalog entity a cart line points at.
type ItemKind string

const (
	ItemKindCursus ItemKind = "cursus"
	ItemKindLesson ItemKind = "lesson"
)

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	return k == ItemKindCursus || k == ItemKindLesson
}

// ItemRef is a reference to a sellable item: either a cursus or a lesson.
type ItemRef struct {
	Kind ItemKind
	ID   int64
}

// CursusRef returns a reference to a cursus.
func CursusRef(id int64) ItemRef { return ItemRef{Kind: ItemKindCursus, ID: id} }

// LessonRef returns a reference to a lesson.
func LessonRef(id int64) ItemRef { return ItemRef{Kind: ItemKindLesson, ID: id} }

// Key encodes the reference as stored in the session cart, e.g. "cursus-3".
func (r ItemRef) Key() string {
	return fmt.Sprintf("%s-%d", r.Kind, r.ID)
}

func (r ItemRef) String() string { return r.Key() }

// ParseItemRef decodes a session cart key. Unknown kinds and malformed ids
// are rejected.
func ParseItemRef(key string) (ItemRef, error) {
	i := strings.LastIndex(key, "-")
	if i <= 0 || i == len(key)-1 {
		return ItemRef{}, fmt.Errorf("malformed cart key %q", key)
	}

	kind := ItemKind(key[:i])
	if !kind.Valid() {
		return ItemRef{}, fmt.Errorf("unknown item kind %q", kind)
	}

	id, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return ItemRef{}, fmt.Errorf("malformed item id in cart key %q", key)
	}

	return ItemRef{Kind: kind, ID: id}, nil
}

// CartItem is a resolved cart line. Exactly one of Cursus or Lesson is set.
type CartItem struct {
	Ref      ItemRef
	Cursus   *Cursus
	Lesson   *Lesson
	Quantity int
}

// Name returns the display name of the resolved entity.
func (i CartItem) Name() string {
	switch {
	case i.Cursus != nil:
		return i.Cursus.Name
	case i.Lesson != nil:
		return i.Lesson.Name
	}
	return ""
}

// UnitPrice returns the price of the resolved entity.
func (i CartItem) UnitPrice() decimal.Decimal {
	switch {
	case i.Cursus != nil:
		return i.Cursus.Price
	case i.Lesson != nil:
		return i.Lesson.Price
	}
	return decimal.Zero
}

// LineTotal returns unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSummary aggregates resolved lines with the computed total.
type CartSummary struct {
	Items     []CartItem
	Total     decimal.Decimal
	ItemCount int
}

// IsEmpty reports whether the summary has no lines.
func (s *CartSummary) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}
