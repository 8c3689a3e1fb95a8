package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter, responding 400 if it
// is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// respondServiceError maps domain errors to API responses. Anything
// unrecognized goes through the storage error parser.
func respondServiceError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	var verrs directory.ValidationErrors
	if errors.As(err, &verrs) {
		apperrors.RespondWithValidationError(c, verrs)
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		apperrors.Unauthorized(c, "")
	case errors.Is(err, service.ErrListingForbidden):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Only the owner or an administrator can change this listing")
	case errors.Is(err, service.ErrAdminOnlyOperation), errors.Is(err, directory.ErrNotAdmin):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "Administrator access required")
	case errors.Is(err, service.ErrNotificationForbidden), errors.Is(err, service.ErrCannotModifySelf):
		apperrors.Forbidden(c, err.Error())

	case errors.Is(err, service.ErrListingNotFound):
		apperrors.NotFound(c, apperrors.ListingNotFound, "Listing not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
	case errors.Is(err, service.ErrMessageNotFound):
		apperrors.NotFound(c, apperrors.MessageNotFound, "Message not found")
	case errors.Is(err, service.ErrNotificationNotFound):
		apperrors.NotFound(c, apperrors.NotificationNotFound, "Notification not found")

	case errors.Is(err, service.ErrListingNotApproved):
		apperrors.Conflict(c, apperrors.ListingNotApproved, "Reviews can only be added to approved listings")
	case errors.Is(err, directory.ErrAlreadyInStatus):
		apperrors.Conflict(c, apperrors.ListingAlreadyInStatus, "Listing already has this status")
	case errors.Is(err, directory.ErrInvalidTransition), errors.Is(err, service.ErrInvalidStatus):
		apperrors.BadRequest(c, apperrors.ListingInvalidTransition, "Invalid listing status")
	case errors.Is(err, service.ErrCategoryExists):
		apperrors.Conflict(c, apperrors.CategoryExists, "A category with this name already exists")
	case errors.Is(err, service.ErrCategoryReserved):
		apperrors.BadRequest(c, apperrors.CategoryReserved, err.Error())
	case errors.Is(err, service.ErrCategoryInUse):
		apperrors.Conflict(c, apperrors.CategoryInUse, "Category is used by existing listings")
	case errors.Is(err, service.ErrCategoryNameRequired), errors.Is(err, service.ErrMessageInvalid),
		errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrDescriptionRequired):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrInvalidRating):
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5")
	case errors.Is(err, service.ErrEmptyComment):
		apperrors.BadRequest(c, apperrors.ReviewEmptyComment, "Comment is required")
	case errors.Is(err, service.ErrSuggestUnavailable), errors.Is(err, service.ErrSuggestMalformed):
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.SuggestUnavailable, "Category suggestion is unavailable right now")

	default:
		log.Error("Request failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}
