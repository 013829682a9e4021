package service

import (
	"context"
	"testing"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryService_ListPurchases(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := NewLibraryService(f.store, discardLogger())

	_, err := svc.ListPurchases(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	buy(t, f, f.user(), lessonLine(f.dough, "Dough", "12.00"))
	buy(t, f, f.user(), cursusLine(f.basics, "Basics", "50.00"))

	views, err := svc.ListPurchases(ctx, f.user())
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "Stocks", views[0].Name, "newest first")
	assert.Equal(t, domain.ItemKindLesson, views[0].Kind)
	assert.Equal(t, "Basics", views[2].Name)
	assert.Equal(t, domain.ItemKindCursus, views[2].Kind)
	assert.Equal(t, "Dough", views[3].Name)
}

func TestLibraryService_ListCertifications(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := NewLibraryService(f.store, discardLogger())

	views, err := svc.ListCertifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = NewThemeService(f.store, f.publisher, discardLogger(), nil).ValidateTheme(ctx, f.themeID)
	require.NoError(t, err)

	views, err = svc.ListCertifications(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Cooking", views[0].ThemeName)
	assert.Equal(t, f.themeID, views[0].ThemeID)
}

func TestCatalogService_ListThemes(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	f.store.addTheme("Wine")

	themes, err := NewCatalogService(f.store).ListThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 2)

	cooking := themes[0]
	assert.Equal(t, "Cooking", cooking.Name)
	assert.Nil(t, cooking.Certification)
	require.Len(t, cooking.Cursus, 2)
	assert.Equal(t, "Basics", cooking.Cursus[0].Name)
	require.Len(t, cooking.Cursus[0].Lessons, 2)
	assert.Equal(t, "Knives", cooking.Cursus[0].Lessons[0].Name)
	assert.Equal(t, "15.5", cooking.Cursus[0].Lessons[1].Price.String())

	assert.Empty(t, themes[1].Cursus)
}

func TestCatalogService_ListThemesFailure(t *testing.T) {
	f := newCatalogFixture()
	f.store.failOn("ListLessons", 0)

	_, err := NewCatalogService(f.store).ListThemes(context.Background())
	assert.True(t, domain.IsPersistenceError(err))
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := NewUserService(f.store)

	u, err := svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
