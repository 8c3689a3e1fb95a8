package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/controller"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/middleware"
)

// Controllers groups the HTTP handlers mounted by the router.
type Controllers struct {
	Auth         *controller.AuthController
	Listing      *controller.ListingController
	Category     *controller.CategoryController
	Admin        *controller.AdminController
	Message      *controller.MessageController
	Notification *controller.NotificationController
	Upload       *controller.UploadController // nil when S3 is not configured
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Business directory API is running",
		})
	})

	ctrl := r.controllers
	authn := r.authMiddleware.Authenticate()
	optional := r.authMiddleware.OptionalAuthenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctrl.Auth.Register)
			auth.POST("/login", ctrl.Auth.Login)
			auth.POST("/refresh", ctrl.Auth.RefreshToken)
			auth.POST("/logout", authn, ctrl.Auth.Logout)
			auth.GET("/me", authn, ctrl.Auth.GetMe)
			auth.PUT("/me", authn, ctrl.Auth.UpdateMe)
		}

		listings := v1.Group("/listings")
		{
			listings.GET("", ctrl.Listing.HomeFeed)
			listings.GET("/top-rated", ctrl.Listing.TopRated)
			listings.GET("/mine", authn, ctrl.Listing.MyListings)
			listings.POST("/suggest-category", authn, ctrl.Listing.SuggestCategory)
			listings.GET("/:id", optional, ctrl.Listing.GetListing)
			listings.POST("", authn, ctrl.Listing.CreateListing)
			listings.PUT("/:id", authn, ctrl.Listing.UpdateListing)
			listings.DELETE("/:id", authn, ctrl.Listing.DeleteListing)
			listings.POST("/:id/reviews", authn, ctrl.Listing.AddReview)
		}

		v1.GET("/categories", ctrl.Category.List)
		v1.POST("/messages", optional, ctrl.Message.Send)

		if ctrl.Upload != nil {
			v1.POST("/upload/image", authn, ctrl.Upload.PresignImage)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authn)
		{
			notifications.GET("", ctrl.Notification.GetNotifications)
			notifications.GET("/unread-count", ctrl.Notification.GetUnreadCount)
			notifications.GET("/ws", ctrl.Notification.Stream)
			notifications.PATCH("/read-all", ctrl.Notification.MarkAllAsRead)
			notifications.PATCH("/:id/read", ctrl.Notification.MarkAsRead)
			notifications.DELETE("/:id", ctrl.Notification.DeleteNotification)
		}

		admin := v1.Group("/admin")
		admin.Use(authn, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/listings", ctrl.Admin.ListListings)
			admin.GET("/listings/export", ctrl.Admin.Export)
			admin.POST("/listings/import", ctrl.Admin.Import)
			admin.PUT("/listings/:id", ctrl.Admin.UpdateListing)
			admin.POST("/listings/:id/approve", ctrl.Admin.Approve)
			admin.POST("/listings/:id/reject", ctrl.Admin.Reject)

			admin.GET("/users", ctrl.Admin.ListUsers)
			admin.PUT("/users/:id/role", ctrl.Admin.SetUserRole)
			admin.DELETE("/users/:id", ctrl.Admin.DeleteUser)

			admin.POST("/categories", ctrl.Category.Create)
			admin.PUT("/categories/:id", ctrl.Category.Rename)
			admin.DELETE("/categories/:id", ctrl.Category.Delete)

			admin.GET("/messages", ctrl.Message.List)
			admin.PATCH("/messages/:id/read", ctrl.Message.MarkRead)
			admin.DELETE("/messages/:id", ctrl.Message.Delete)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, If-None-Match, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
