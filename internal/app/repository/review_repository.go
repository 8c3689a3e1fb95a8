package repository

import (
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	// Append inserts the review unless one with the same id exists. The
	// returned flag reports whether a row was written.
	Append(review *model.Review) (bool, error)
	FindByListing(listingID uint) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Append(review *model.Review) (bool, error) {
	logger.Debug("Appending review", map[string]interface{}{
		"listing_id": review.ListingID,
		"review_id":  review.ID,
		"rating":     review.Rating,
	})

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(review)
	if result.Error != nil {
		logger.Error("Failed to append review", result.Error, map[string]interface{}{
			"listing_id": review.ListingID,
		})
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *reviewRepository) FindByListing(listingID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}
