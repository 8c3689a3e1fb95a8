package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	"github.com/ikkim/bizdir-backend/internal/db"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
	"github.com/ikkim/bizdir-backend/internal/storage"
	ws "github.com/ikkim/bizdir-backend/internal/websocket"
	"github.com/ikkim/bizdir-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret      = "test-secret"
	testPlaceholder = "https://placehold.co/600x400.png"
)

type apiEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	users    repository.UserRepository
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
	revoked  map[string]bool
	uploads  *fakeImageStorage
}

// setupAPITest wires every controller onto a gin engine the same way the
// production router does, backed by SQLite and an in-memory token blacklist.
func setupAPITest(t *testing.T) *apiEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedCategories(testDB, []string{"Food", "Retail", "Services"}))

	env := &apiEnv{
		db:       testDB,
		users:    repository.NewUserRepository(testDB),
		listings: repository.NewListingRepository(testDB),
		reviews:  repository.NewReviewRepository(testDB),
		revoked:  make(map[string]bool),
		uploads:  &fakeImageStorage{},
	}

	categoryRepo := repository.NewCategoryRepository(testDB)
	cache := service.NewListingCache(nil, time.Minute)

	revoke := func(ctx context.Context, token string, ttl time.Duration) error {
		env.revoked[token] = true
		return nil
	}
	isRevoked := func(ctx context.Context, token string) (bool, error) {
		return env.revoked[token], nil
	}
	authService := service.NewAuthService(env.users, revoke, isRevoked, testSecret, 15*time.Minute, 24*time.Hour)
	listingService := service.NewListingService(env.listings, categoryRepo, cache, testPlaceholder)
	reviewService := service.NewReviewService(env.reviews, env.listings, env.users, cache)
	categoryService := service.NewCategoryService(categoryRepo, env.listings, cache)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(testDB), nil)
	adminService := service.NewAdminService(env.listings, env.users, notificationService, cache)
	messageService := service.NewMessageService(repository.NewMessageRepository(testDB))
	aiService, err := service.NewAIService(context.Background(), &config.AIConfig{Provider: "none"}, categoryService)
	require.NoError(t, err)

	authCtrl := NewAuthController(authService)
	listingCtrl := NewListingController(listingService, reviewService, aiService)
	categoryCtrl := NewCategoryController(categoryService)
	adminCtrl := NewAdminController(adminService, listingService)
	messageCtrl := NewMessageController(messageService)
	notificationCtrl := NewNotificationController(notificationService, ws.NewHub(), []string{"*"})
	uploadCtrl := NewUploadController(env.uploads)

	auth := middleware.NewAuthMiddleware(testSecret).WithRevocationChecker(func(c *gin.Context, token string) (bool, error) {
		return env.revoked[token], nil
	})

	r := gin.New()
	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authCtrl.Register)
	authGroup.POST("/login", authCtrl.Login)
	authGroup.POST("/refresh", authCtrl.RefreshToken)
	authGroup.POST("/logout", auth.Authenticate(), authCtrl.Logout)
	authGroup.GET("/me", auth.Authenticate(), authCtrl.GetMe)
	authGroup.PUT("/me", auth.Authenticate(), authCtrl.UpdateMe)

	listingsGroup := api.Group("/listings")
	listingsGroup.GET("", listingCtrl.HomeFeed)
	listingsGroup.GET("/top-rated", listingCtrl.TopRated)
	listingsGroup.GET("/mine", auth.Authenticate(), listingCtrl.MyListings)
	listingsGroup.POST("/suggest-category", auth.Authenticate(), listingCtrl.SuggestCategory)
	listingsGroup.GET("/:id", auth.OptionalAuthenticate(), listingCtrl.GetListing)
	listingsGroup.POST("", auth.Authenticate(), listingCtrl.CreateListing)
	listingsGroup.PUT("/:id", auth.Authenticate(), listingCtrl.UpdateListing)
	listingsGroup.DELETE("/:id", auth.Authenticate(), listingCtrl.DeleteListing)
	listingsGroup.POST("/:id/reviews", auth.Authenticate(), listingCtrl.AddReview)

	api.GET("/categories", categoryCtrl.List)
	api.POST("/messages", auth.OptionalAuthenticate(), messageCtrl.Send)
	api.POST("/upload/image", auth.Authenticate(), uploadCtrl.PresignImage)

	notifications := api.Group("/notifications", auth.Authenticate())
	notifications.GET("", notificationCtrl.GetNotifications)
	notifications.GET("/unread-count", notificationCtrl.GetUnreadCount)
	notifications.PATCH("/read-all", notificationCtrl.MarkAllAsRead)
	notifications.PATCH("/:id/read", notificationCtrl.MarkAsRead)
	notifications.DELETE("/:id", notificationCtrl.DeleteNotification)

	admin := api.Group("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
	admin.GET("/listings", adminCtrl.ListListings)
	admin.GET("/listings/export", adminCtrl.Export)
	admin.POST("/listings/import", adminCtrl.Import)
	admin.PUT("/listings/:id", adminCtrl.UpdateListing)
	admin.POST("/listings/:id/approve", adminCtrl.Approve)
	admin.POST("/listings/:id/reject", adminCtrl.Reject)
	admin.GET("/users", adminCtrl.ListUsers)
	admin.PUT("/users/:id/role", adminCtrl.SetUserRole)
	admin.DELETE("/users/:id", adminCtrl.DeleteUser)
	admin.POST("/categories", categoryCtrl.Create)
	admin.PUT("/categories/:id", categoryCtrl.Rename)
	admin.DELETE("/categories/:id", categoryCtrl.Delete)
	admin.GET("/messages", messageCtrl.List)
	admin.PATCH("/messages/:id/read", messageCtrl.MarkRead)
	admin.DELETE("/messages/:id", messageCtrl.Delete)

	env.router = r
	return env
}

// createUser stores an account and returns it with a valid access token.
func (e *apiEnv) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	user := &model.User{Email: email, PasswordHash: "hashed", Name: "Test " + string(role), Role: role}
	require.NoError(t, e.users.Create(user))
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (e *apiEnv) createListing(t *testing.T, ownerID uint, name string, status directory.Status) *model.Listing {
	l := &model.Listing{
		OwnerID:     ownerID,
		Name:        name,
		Description: name + " serving the neighbourhood",
		Category:    "Food",
		Contact:     model.ListingContact{Phone: "9876543210", Email: "shop@example.com"},
		Address: model.ListingAddress{
			Street: "1 Main Street",
			City:   "Kochi",
			State:  "Kerala",
			Zip:    "682001",
		},
		Images:           []string{testPlaceholder},
		Status:           status,
		ReferenceBy:      "friend",
		CasteAndCategory: "general",
	}
	require.NoError(t, e.listings.Create(l))
	return l
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func listingPayload() directory.ListingInput {
	return directory.ListingInput{
		Name:        "Sunrise Bakery",
		Description: "Fresh bread and cakes every morning",
		Category:    directory.CategorySelection{Selection: "Food"},
		Contact: directory.Contact{
			Phone: "9876543210",
			Email: "hello@sunrise.example",
		},
		Address: directory.AddressInput{
			Street: "42 Beach Road",
			City:   "Kochi",
			State:  "Kerala",
			Zip:    "682001",
		},
		ReferenceBy:      "community meetup",
		CasteAndCategory: "general",
	}
}

type fakeImageStorage struct {
	calls int
}

func (f *fakeImageStorage) PresignImageUpload(ctx context.Context, ownerID uint, filename, contentType string, size int64) (*storage.PresignedUpload, error) {
	f.calls++
	if err := storage.ValidateImage(contentType, size); err != nil {
		return nil, err
	}
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.example/upload?sig=abc",
		FileURL:   "https://cdn.example/listings/1/image.png",
		Key:       "listings/1/image.png",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}
