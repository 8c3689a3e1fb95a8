package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
)

type ListingController struct {
	listingService service.ListingService
	reviewService  service.ReviewService
	aiService      service.AIService
}

func NewListingController(
	listingService service.ListingService,
	reviewService service.ReviewService,
	aiService service.AIService,
) *ListingController {
	return &ListingController{
		listingService: listingService,
		reviewService:  reviewService,
		aiService:      aiService,
	}
}

type SuggestCategoryRequest struct {
	Description string `json:"description" binding:"required"`
}

// HomeFeed returns the filtered approved listings with the top-rated section
// GET /api/v1/listings?keyword=&category=&city=&minRating=
func (ctrl *ListingController) HomeFeed(c *gin.Context) {
	filter, err := directory.ParseFilter(
		c.Query("keyword"),
		c.Query("category"),
		c.Query("city"),
		c.Query("minRating"),
	)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "minRating must be all or a number from 1 to 5")
		return
	}

	feed, err := ctrl.listingService.HomeFeed(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "fetch listings")
		return
	}

	c.Header("ETag", feed.ETag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == feed.ETag {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// TopRated returns approved listings averaging four stars or more
// GET /api/v1/listings/top-rated
func (ctrl *ListingController) TopRated(c *gin.Context) {
	listings, err := ctrl.listingService.TopRated(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch listings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetListing returns one listing if the caller may see it
// GET /api/v1/listings/:id
func (ctrl *ListingController) GetListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := ctrl.listingService.GetListing(middleware.ActorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err, "fetch listing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// MyListings returns the caller's listings in every status
// GET /api/v1/listings/mine
func (ctrl *ListingController) MyListings(c *gin.Context) {
	listings, err := ctrl.listingService.MyListings(middleware.ActorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "fetch listings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// CreateListing submits a listing for review
// POST /api/v1/listings
func (ctrl *ListingController) CreateListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input directory.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warn("Invalid listing payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid listing data")
		return
	}

	listing, err := ctrl.listingService.CreateListing(c.Request.Context(), middleware.ActorFromContext(c), input)
	if err != nil {
		respondServiceError(c, err, "create listing")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Listing submitted for review",
		"listing": listing,
	})
}

// UpdateListing edits a listing; owner edits send it back for review
// PUT /api/v1/listings/:id
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input directory.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid listing data")
		return
	}

	listing, err := ctrl.listingService.UpdateListing(c.Request.Context(), middleware.ActorFromContext(c), id, input)
	if err != nil {
		respondServiceError(c, err, "update listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing updated",
		"listing": listing,
	})
}

// DeleteListing removes a listing
// DELETE /api/v1/listings/:id
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.listingService.DeleteListing(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondServiceError(c, err, "delete listing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// AddReview appends a review to an approved listing
// POST /api/v1/listings/:id/reviews
func (ctrl *ListingController) AddReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid review data")
		return
	}

	listing, err := ctrl.reviewService.AddReview(c.Request.Context(), middleware.ActorFromContext(c), id, input)
	if err != nil {
		respondServiceError(c, err, "add review")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review added",
		"listing": listing,
	})
}

// SuggestCategory asks the classifier for a category; nothing is saved
// POST /api/v1/listings/suggest-category
func (ctrl *ListingController) SuggestCategory(c *gin.Context) {
	var req SuggestCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Description is required")
		return
	}

	suggestion, err := ctrl.aiService.SuggestCategory(c.Request.Context(), req.Description)
	if err != nil {
		respondServiceError(c, err, "suggest category")
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
