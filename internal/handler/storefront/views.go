package storefront

import (
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/service"
	"github.com/shopspring/decimal"
)

// money renders a price with two decimals, e.g. "10.50".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type lessonJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type cursusJSON struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Price     string       `json:"price"`
	Validated bool         `json:"validated"`
	Lessons   []lessonJSON `json:"lessons"`
}

type certificationJSON struct {
	ID        int64     `json:"id"`
	ThemeID   int64     `json:"theme_id"`
	ThemeName string    `json:"theme_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type themeJSON struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Image         string             `json:"image,omitempty"`
	Valid         bool               `json:"valid"`
	Certification *certificationJSON `json:"certification,omitempty"`
	Cursus        []cursusJSON       `json:"cursus"`
}

func newThemeJSON(t *domain.Theme) themeJSON {
	out := themeJSON{
		ID:     t.ID,
		Name:   t.Name,
		Image:  t.Image,
		Valid:  t.Valid,
		Cursus: make([]cursusJSON, 0, len(t.Cursus)),
	}
	if t.Certification != nil {
		out.Certification = &certificationJSON{
			ID:        t.Certification.ID,
			ThemeID:   t.Certification.ThemeID,
			CreatedAt: t.Certification.CreatedAt,
		}
	}
	for _, c := range t.Cursus {
		cj := cursusJSON{
			ID:        c.ID,
			Name:      c.Name,
			Price:     money(c.Price),
			Validated: c.Validated,
			Lessons:   make([]lessonJSON, 0, len(c.Lessons)),
		}
		for _, l := range c.Lessons {
			cj.Lessons = append(cj.Lessons, lessonJSON{ID: l.ID, Name: l.Name, Price: money(l.Price)})
		}
		out.Cursus = append(out.Cursus, cj)
	}
	return out
}

type cartLineJSON struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type cartJSON struct {
	Items     []cartLineJSON `json:"items"`
	Total     string         `json:"total"`
	ItemCount int            `json:"item_count"`
}

func newCartJSON(s *domain.CartSummary) cartJSON {
	out := cartJSON{Items: []cartLineJSON{}, Total: money(decimal.Zero)}
	if s == nil {
		return out
	}
	out.Total = money(s.Total)
	out.ItemCount = s.ItemCount
	for _, item := range s.Items {
		out.Items = append(out.Items, cartLineJSON{
			Key:       item.Ref.Key(),
			Kind:      string(item.Ref.Kind),
			ID:        item.Ref.ID,
			Name:      item.Name(),
			UnitPrice: money(item.UnitPrice()),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal()),
		})
	}
	return out
}

type purchaseJSON struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	LessonID  *int64    `json:"lesson_id,omitempty"`
	CursusID  *int64    `json:"cursus_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Validated bool      `json:"validated"`
	CreatedAt time.Time `json:"created_at"`
}

func newPurchaseJSON(p domain.Purchase, name string) purchaseJSON {
	kind := domain.ItemKindCursus
	if p.IsLesson() {
		kind = domain.ItemKindLesson
	}
	return purchaseJSON{
		ID:        p.ID,
		Kind:      string(kind),
		LessonID:  p.LessonID,
		CursusID:  p.CursusID,
		Name:      name,
		Validated: p.Validated,
		CreatedAt: p.CreatedAt,
	}
}

func newCertificationJSON(v service.CertificationView) certificationJSON {
	return certificationJSON{
		ID:        v.ID,
		ThemeID:   v.ThemeID,
		ThemeName: v.ThemeName,
		CreatedAt: v.CreatedAt,
	}
}
