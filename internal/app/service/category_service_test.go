package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryService_Create(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.categoryService()
	env.seedCategories(t, "Food")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "new category", input: "  Tailoring "},
		{name: "blank", input: "   ", wantErr: ErrCategoryNameRequired},
		{name: "reserved Other", input: "other", wantErr: ErrCategoryReserved},
		{name: "case-insensitive duplicate", input: "FOOD", wantErr: ErrCategoryExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, err := svc.Create(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Tailoring", category.Name)
		})
	}

	names, err := svc.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Tailoring"}, names)
}

func TestCategoryService_Rename(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.categoryService()
	owner := env.createUser(t, "owner@example.com", "Owner", model.RoleUser)
	env.seedCategories(t, "Food", "Services")
	ctx := context.Background()

	categories, err := svc.List()
	require.NoError(t, err)
	food := categories[0]

	listing := env.createListing(t, owner.ID, "Shop", "Food", "Kochi", directory.StatusApproved)

	_, err = svc.Rename(ctx, food.ID, "services")
	assert.ErrorIs(t, err, ErrCategoryExists)

	renamed, err := svc.Rename(ctx, food.ID, "Food & Drink")
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink", renamed.Name)

	stored, err := env.listings.FindByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink", stored.Category)

	// renaming to a different case of its own name is allowed
	_, err = svc.Rename(ctx, food.ID, "FOOD & DRINK")
	require.NoError(t, err)

	_, err = svc.Rename(ctx, 9999, "Anything")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Delete(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.categoryService()
	owner := env.createUser(t, "owner@example.com", "Owner", model.RoleUser)
	env.seedCategories(t, "Food", "Services")
	ctx := context.Background()

	categories, err := svc.List()
	require.NoError(t, err)
	food, services := categories[0], categories[1]

	env.createListing(t, owner.ID, "Shop", "food", "Kochi", directory.StatusPending)

	assert.ErrorIs(t, svc.Delete(ctx, food.ID), ErrCategoryInUse)
	require.NoError(t, svc.Delete(ctx, services.ID))
	assert.ErrorIs(t, svc.Delete(ctx, services.ID), ErrCategoryNotFound)

	names, err := svc.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Food"}, names)
}

func TestCategoryService_SearchCategoryUse(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.categoryService()
	owner := env.createUser(t, "owner@example.com", "Owner", model.RoleUser)
	env.seedCategories(t, "Food", "Services")
	ctx := context.Background()

	categories, err := svc.List()
	require.NoError(t, err)
	services := categories[1]

	input := validInput()
	input.SearchCategories = []string{"services"}
	listing, err := env.listingService().CreateListing(ctx, userActor(owner.ID), input)
	require.NoError(t, err)
	require.Equal(t, []string{"Services"}, []string(listing.SearchCategories))

	assert.ErrorIs(t, svc.Delete(ctx, services.ID), ErrCategoryInUse)

	_, err = svc.Rename(ctx, services.ID, "Home Services")
	require.NoError(t, err)

	stored, err := env.listings.FindByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.Category)
	assert.Equal(t, []string{"Home Services"}, []string(stored.SearchCategories))
}

func TestCategoryService_RenameIsAtomic(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.categoryService()
	owner := env.createUser(t, "owner@example.com", "Owner", model.RoleUser)
	env.seedCategories(t, "Food")
	ctx := context.Background()

	categories, err := svc.List()
	require.NoError(t, err)
	food := categories[0]
	listing := env.createListing(t, owner.ID, "Shop", "Food", "Kochi", directory.StatusApproved)

	err = env.db.Callback().Update().Before("gorm:update").
		Register("test:fail_listing_updates", func(tx *gorm.DB) {
			if tx.Statement.Table == "listings" {
				_ = tx.AddError(errors.New("listings table unavailable"))
			}
		})
	require.NoError(t, err)

	_, err = svc.Rename(ctx, food.ID, "Food & Drink")
	require.Error(t, err)

	names, err := svc.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Food"}, names)

	stored, err := env.listings.FindByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.Category)
}
