package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"nil", nil, "get listing", InternalServerError},
		{"listing not found", gorm.ErrRecordNotFound, "get listing", ListingNotFound},
		{"wrapped not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "rename category", CategoryNotFound},
		{"generic not found", gorm.ErrRecordNotFound, "load", ResourceNotFound},
		{"sqlite category duplicate", fmt.Errorf("UNIQUE constraint failed: categories.name_key"), "create category", CategoryExists},
		{"postgres email duplicate", fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), "register", AuthEmailAlreadyExists},
		{"still referenced", fmt.Errorf(`update or delete on table "users" violates foreign key constraint ... is still referenced`), "delete user", ResourceConflict},
		{"missing listing fk", fmt.Errorf(`insert violates foreign key constraint "fk_listings_reviews" listing_id`), "add review", ListingNotFound},
		{"timeout", fmt.Errorf("dial tcp: i/o timeout"), "suggest category", InternalExternalAPI},
		{"unknown", fmt.Errorf("boom"), "create listing", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestRespondHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, AuthUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, AuthzForbidden},
		{"conflict", func(c *gin.Context) { Conflict(c, CategoryInUse, "in use") }, http.StatusConflict, CategoryInUse},
		{"validation", func(c *gin.Context) { RespondWithValidationError(c, map[string]string{"name": "too short"}) }, http.StatusBadRequest, ValidationInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}
