package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/controller"
	"github.com/ikkim/bizdir-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://bizdir.example"}},
	}
	// handlers are never reached in these tests
	controllers := Controllers{
		Auth:         &controller.AuthController{},
		Listing:      &controller.ListingController{},
		Category:     &controller.CategoryController{},
		Admin:        &controller.AdminController{},
		Message:      &controller.MessageController{},
		Notification: &controller.NotificationController{},
	}
	auth := middleware.NewAuthMiddleware("router-test").WithRevocationChecker(func(c *gin.Context, token string) (bool, error) {
		return false, nil
	})
	return NewRouter(controllers, auth, cfg).Setup()
}

func TestSetup_Health(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","message":"Business directory API is running"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSetup_CORS(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed origin", "https://bizdir.example", "https://bizdir.example"},
		{"unknown origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/listings", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSetup_ProtectedRoutes(t *testing.T) {
	r := setupRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/listings"},
		{http.MethodGet, "/api/v1/listings/mine"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/admin/listings"},
		{http.MethodDelete, "/api/v1/admin/users/1"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/upload/image", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
