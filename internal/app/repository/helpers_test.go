package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         "Test User",
		Role:         role,
	}
	require.NoError(t, NewUserRepository(testDB).Create(user))
	return user
}

func newTestListing(ownerID uint, name, category, city string, status directory.Status) *model.Listing {
	return &model.Listing{
		OwnerID:          ownerID,
		Name:             name,
		Description:      fmt.Sprintf("%s is a local business in %s", name, city),
		Category:         category,
		SearchCategories: []string{"Bakery"},
		Contact: model.ListingContact{
			Phone: "9876543210",
			Email: "contact@example.com",
			Links: model.LinkList{{Type: directory.LinkWebsite, URL: "https://example.com"}},
		},
		Address: model.ListingAddress{
			Street: "12 Market Road",
			City:   city,
			State:  "Karnataka",
			Zip:    "570001",
		},
		Images:           []string{"https://placehold.co/600x400.png"},
		Status:           status,
		ReferenceBy:      "walk-in",
		CasteAndCategory: "general",
	}
}

func createTestListing(t *testing.T, testDB *gorm.DB, ownerID uint, name, category, city string, status directory.Status) *model.Listing {
	l := newTestListing(ownerID, name, category, city, status)
	require.NoError(t, NewListingRepository(testDB).Create(l))
	// keep created_at strictly increasing between fixtures
	time.Sleep(2 * time.Millisecond)
	return l
}

// failListingUpdates makes every UPDATE against the listings table fail.
func failListingUpdates(t *testing.T, testDB *gorm.DB) {
	err := testDB.Callback().Update().Before("gorm:update").
		Register("test:fail_listing_updates", func(tx *gorm.DB) {
			if tx.Statement.Table == "listings" {
				_ = tx.AddError(errors.New("listings table unavailable"))
			}
		})
	require.NoError(t, err)
}
