package repository

import (
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository interface {
	Create(listing *model.Listing) error
	CreateBatch(listings []model.Listing, batchSize int) error
	Update(listing *model.Listing) error
	Delete(id uint) error
	FindByID(id uint) (*model.Listing, error)
	FindByOwner(ownerID uint) ([]model.Listing, error)
	FindByStatus(status directory.Status) ([]model.Listing, error)
	FindApproved() ([]model.Listing, error)
	CountByStatus(status directory.Status) (int64, error)
	CountByCategory(category string) (int64, error)
	UpdateStatus(id uint, status directory.Status) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// preloadReviews keeps the review sequence in append order.
func preloadReviews(db *gorm.DB) *gorm.DB {
	return db.Order("reviews.created_at ASC")
}

func (r *listingRepository) Create(listing *model.Listing) error {
	logger.Debug("Creating listing in database", map[string]interface{}{
		"name":     listing.Name,
		"category": listing.Category,
		"owner_id": listing.OwnerID,
	})

	if err := r.db.Omit("Owner").Create(listing).Error; err != nil {
		logger.Error("Failed to create listing in database", err, map[string]interface{}{
			"name":     listing.Name,
			"owner_id": listing.OwnerID,
		})
		return err
	}

	logger.Debug("Listing created in database", map[string]interface{}{
		"listing_id": listing.ID,
		"owner_id":   listing.OwnerID,
	})
	return nil
}

func (r *listingRepository) CreateBatch(listings []model.Listing, batchSize int) error {
	if len(listings) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	logger.Debug("Creating listings in batches", map[string]interface{}{
		"count":      len(listings),
		"batch_size": batchSize,
	})

	if err := r.db.Omit("Owner", "Reviews").CreateInBatches(listings, batchSize).Error; err != nil {
		logger.Error("Failed to create listings in batches", err, map[string]interface{}{
			"count": len(listings),
		})
		return err
	}
	return nil
}

// Update writes the editable columns. Owner and creation time are never rewritten
// and reviews are only ever appended through ReviewRepository.
func (r *listingRepository) Update(listing *model.Listing) error {
	logger.Debug("Updating listing in database", map[string]interface{}{
		"listing_id": listing.ID,
		"status":     listing.Status,
	})

	err := r.db.Omit(clause.Associations, "OwnerID", "CreatedAt").Save(listing).Error
	if err != nil {
		logger.Error("Failed to update listing in database", err, map[string]interface{}{
			"listing_id": listing.ID,
		})
		return err
	}

	logger.Debug("Listing updated in database", map[string]interface{}{
		"listing_id": listing.ID,
	})
	return nil
}

func (r *listingRepository) Delete(id uint) error {
	logger.Debug("Deleting listing from database", map[string]interface{}{
		"listing_id": id,
	})

	result := r.db.Delete(&model.Listing{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete listing from database", result.Error, map[string]interface{}{
			"listing_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Listing deleted from database", map[string]interface{}{
		"listing_id": id,
	})
	return nil
}

func (r *listingRepository) FindByID(id uint) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.Preload("Reviews", preloadReviews).First(&listing, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find listing by ID", err, map[string]interface{}{
				"listing_id": id,
			})
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) FindByOwner(ownerID uint) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.Preload("Reviews", preloadReviews).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		logger.Error("Failed to find listings by owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) FindByStatus(status directory.Status) ([]model.Listing, error) {
	logger.Debug("Finding listings by status", map[string]interface{}{
		"status": status,
	})

	var listings []model.Listing
	err := r.db.Preload("Reviews", preloadReviews).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		logger.Error("Failed to find listings by status", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	logger.Debug("Listings found", map[string]interface{}{
		"status": status,
		"count":  len(listings),
	})
	return listings, nil
}

// FindApproved returns the public snapshot, newest first. This order is the
// input order the filter and top-rated rules preserve.
func (r *listingRepository) FindApproved() ([]model.Listing, error) {
	return r.FindByStatus(directory.StatusApproved)
}

func (r *listingRepository) CountByStatus(status directory.Status) (int64, error) {
	var count int64
	err := r.db.Model(&model.Listing{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountByCategory counts listings that use the category, ignoring case, either
// as their primary category or among their search categories.
func (r *listingRepository) CountByCategory(category string) (int64, error) {
	key := directory.CategoryKey(category)

	var count int64
	if err := r.db.Model(&model.Listing{}).
		Where("LOWER(category) = ?", key).
		Count(&count).Error; err != nil {
		return 0, err
	}

	tagged, err := listingsTaggedWith(r.db, category)
	if err != nil {
		return 0, err
	}
	for _, l := range tagged {
		if directory.CategoryKey(l.Category) != key {
			count++
		}
	}
	return count, nil
}

// listingsTaggedWith loads the listings carrying category among their search
// categories. The array column is matched in Go so the lookup behaves the same
// on every dialect.
func listingsTaggedWith(db *gorm.DB, category string) ([]model.Listing, error) {
	var rows []model.Listing
	if err := db.Model(&model.Listing{}).
		Select("id", "category", "search_categories").
		Where("search_categories IS NOT NULL AND search_categories <> ?", "{}").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	key := directory.CategoryKey(category)
	tagged := make([]model.Listing, 0, len(rows))
	for _, l := range rows {
		for _, c := range l.SearchCategories {
			if directory.CategoryKey(c) == key {
				tagged = append(tagged, l)
				break
			}
		}
	}
	return tagged, nil
}

// renameListingCategory moves listings from one category name to another, in
// both the primary category and the search categories. It returns the number
// of listings changed.
func renameListingCategory(db *gorm.DB, from, to string) (int64, error) {
	key := directory.CategoryKey(from)

	result := db.Model(&model.Listing{}).
		Where("LOWER(category) = ?", key).
		Update("category", to)
	if result.Error != nil {
		return 0, result.Error
	}
	changed := result.RowsAffected

	tagged, err := listingsTaggedWith(db, from)
	if err != nil {
		return 0, err
	}
	for _, l := range tagged {
		search := make(pq.StringArray, len(l.SearchCategories))
		for i, c := range l.SearchCategories {
			if directory.CategoryKey(c) == key {
				c = to
			}
			search[i] = c
		}
		if err := db.Model(&model.Listing{}).
			Where("id = ?", l.ID).
			Update("search_categories", search).Error; err != nil {
			return 0, err
		}
		if directory.CategoryKey(l.Category) != key {
			changed++
		}
	}
	return changed, nil
}

func (r *listingRepository) UpdateStatus(id uint, status directory.Status) error {
	logger.Debug("Updating listing status", map[string]interface{}{
		"listing_id": id,
		"status":     status,
	})

	result := r.db.Model(&model.Listing{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update listing status", result.Error, map[string]interface{}{
			"listing_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
