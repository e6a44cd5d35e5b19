package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

func newCategoryFixture() (*categoryRepoStub, *catalogRepoStub, *CategoryService) {
	categoryID := "c-1"
	categories := &categoryRepoStub{categories: map[string]models.Category{
		"c-1": {ID: "c-1", Name: "Finance", SortOrder: 1},
		"c-2": {ID: "c-2", Name: "Operations", SortOrder: 2},
	}}
	reports := &catalogRepoStub{reports: map[string]models.Report{
		"r-1": {ID: "r-1", Name: "Ledger", CategoryID: &categoryID, IsActive: true},
	}}
	svc := NewCategoryService(categories, reports, nil, &activityStub{}, zap.NewNop())
	return categories, reports, svc
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	categories, _, svc := newCategoryFixture()

	err := svc.Delete(context.Background(), "c-1", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCategoryInUse.Code, appErrors.FromError(err).Code)
	assert.Empty(t, categories.deleted)
}

func TestCategoryDeleteSucceedsWhenEmpty(t *testing.T) {
	categories, _, svc := newCategoryFixture()

	err := svc.Delete(context.Background(), "c-2", "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-2"}, categories.deleted)
}

func TestCategoryDeleteUnknownIsNotFound(t *testing.T) {
	_, _, svc := newCategoryFixture()

	err := svc.Delete(context.Background(), "c-9", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCategoryCreateValidates(t *testing.T) {
	_, _, svc := newCategoryFixture()

	_, err := svc.Create(context.Background(), &CategoryRequest{Name: ""}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCategoryUpdate(t *testing.T) {
	categories, _, svc := newCategoryFixture()

	updated, err := svc.Update(context.Background(), "c-2", &CategoryRequest{Name: "Ops", Icon: "chart", SortOrder: 5}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Ops", updated.Name)
	assert.Equal(t, 5, categories.categories["c-2"].SortOrder)
}
