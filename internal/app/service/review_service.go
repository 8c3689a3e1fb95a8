package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyComment  = errors.New("comment is required")
)

type ReviewInput struct {
	ID      string `json:"id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewService interface {
	// AddReview appends a review to an approved listing. Resubmitting a
	// review id that already exists leaves the listing unchanged.
	AddReview(ctx context.Context, actor directory.Actor, listingID uint, input ReviewInput) (*ListingDetail, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	cache       *ListingCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	cache *ListingCache,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		cache:       cache,
	}
}

func (s *reviewService) AddReview(ctx context.Context, actor directory.Actor, listingID uint, input ReviewInput) (*ListingDetail, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		return nil, mapListingErr(err)
	}
	if listing.Status != directory.StatusApproved {
		return nil, ErrListingNotApproved
	}

	review := &model.Review{
		ID:        strings.TrimSpace(input.ID),
		ListingID: listingID,
		Author:    directory.AnonymousAuthor,
		Rating:    input.Rating,
		Comment:   comment,
	}
	if actor.Authenticated() {
		userID := actor.UserID
		review.UserID = &userID
		if user, err := s.userRepo.FindByID(userID); err == nil {
			review.Author = directory.ReviewAuthor(user.Name)
		}
	}

	created, err := s.reviewRepo.Append(review)
	if err != nil {
		return nil, err
	}

	if created {
		s.cache.Invalidate(ctx)
		logger.Info("Review added", map[string]interface{}{
			"listing_id": listingID,
			"review_id":  review.ID,
			"rating":     review.Rating,
		})
	} else {
		logger.Debug("Duplicate review ignored", map[string]interface{}{
			"listing_id": listingID,
			"review_id":  review.ID,
		})
	}

	updated, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		return nil, mapListingErr(err)
	}
	view := updated.ToDirectory()
	return &ListingDetail{Listing: *updated, AverageRating: view.AverageRating}, nil
}
