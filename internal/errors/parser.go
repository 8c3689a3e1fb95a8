package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a message safe to show to the caller
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps storage and network errors to an ErrorInfo without leaking
// driver details. context names the resource or action, e.g. "create listing".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: notFoundCode(context), Message: notFoundMessage(context)}
	}

	// postgres 23505, sqlite "UNIQUE constraint failed"
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// postgres 23503
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(errLower, context)
	}

	if strings.Contains(errLower, "violates not-null constraint") || strings.Contains(errLower, "not null constraint failed") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(errLower, "check constraint") {
		if strings.Contains(errLower, "rating") {
			return ErrorInfo{Code: ReviewInvalidRating, Message: "Rating must be between 1 and 5"}
		}
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Some fields are invalid"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "deadline exceeded") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "name_key") || strings.Contains(errLower, "categories"):
		return ErrorInfo{Code: CategoryExists, Message: "A category with this name already exists"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	case strings.Contains(errLower, "reviews"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This review was already submitted"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errLower string, context string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "The record is still in use and cannot be deleted"}
	}
	if strings.Contains(errLower, "listing_id") {
		return ErrorInfo{Code: ListingNotFound, Message: "Listing not found"}
	}
	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "owner_id") {
		return ErrorInfo{Code: ResourceNotFound, Message: "User not found"}
	}
	return ErrorInfo{Code: notFoundCode(context), Message: "A referenced record does not exist"}
}

func notFoundCode(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "listing"):
		return ListingNotFound
	case strings.Contains(ctx, "category"):
		return CategoryNotFound
	case strings.Contains(ctx, "message"):
		return MessageNotFound
	case strings.Contains(ctx, "notification"):
		return NotificationNotFound
	}
	return ResourceNotFound
}

func notFoundMessage(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "listing"):
		return "Listing not found"
	case strings.Contains(ctx, "category"):
		return "Category not found"
	case strings.Contains(ctx, "user"):
		return "User not found"
	case strings.Contains(ctx, "message"):
		return "Message not found"
	case strings.Contains(ctx, "notification"):
		return "Notification not found"
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "create"):
		return "Could not save. Please try again later"
	case strings.Contains(ctx, "update"):
		return "Could not update. Please try again later"
	case strings.Contains(ctx, "delete"):
		return "Could not delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with statusCode
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
