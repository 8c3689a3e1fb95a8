package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/pkg/redis"
	"github.com/ikkim/bizdir-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey         = "user_id"
	UserEmailKey      = "user_email"
	UserRoleKey       = "user_role"
	AccessTokenKey    = "access_token"
	TokenExpiresAtKey = "token_expires_at"
)

// TokenRevocationChecker reports whether a token was revoked at logout.
type TokenRevocationChecker func(c *gin.Context, token string) (bool, error)

type AuthMiddleware struct {
	jwtSecret string
	revoked   TokenRevocationChecker
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		revoked: func(c *gin.Context, token string) (bool, error) {
			return redis.IsTokenBlacklisted(c.Request.Context(), token)
		},
	}
}

// WithRevocationChecker replaces the Redis blacklist lookup.
func (m *AuthMiddleware) WithRevocationChecker(fn TokenRevocationChecker) *AuthMiddleware {
	m.revoked = fn
	return m
}

// bearerToken returns the token from the Authorization header or, for
// websocket upgrades, the token query parameter.
func bearerToken(c *gin.Context) (token string, malformed bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token"), false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true
	}
	return parts[1], false
}

// Authenticate validates the JWT (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, malformed := bearerToken(c)
		if malformed {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Authorization header must be: Bearer <token>")
			c.Abort()
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := util.ValidateAccessToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authentication token")
			}
			c.Abort()
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked(c, token)
			if err != nil {
				// blacklist unreachable: token signature is still valid
				log.Warn("Token revocation check failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			if revoked {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "Session has been logged out")
				c.Abort()
				return
			}
		}

		setClaims(c, token, claims)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets the user when a valid token is present and
// otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, malformed := bearerToken(c)
		if malformed || token == "" {
			c.Next()
			return
		}

		claims, err := util.ValidateAccessToken(token, m.jwtSecret)
		if err != nil {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}
		if m.revoked != nil {
			if revoked, _ := m.revoked(c, token); revoked {
				c.Next()
				return
			}
		}

		setClaims(c, token, claims)
		c.Next()
	}
}

func setClaims(c *gin.Context, token string, claims *util.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, model.UserRole(claims.Role))
	c.Set(AccessTokenKey, token)
	if claims.ExpiresAt != nil {
		c.Set(TokenExpiresAtKey, claims.ExpiresAt.Time)
	}
}

// RequireRole checks if user has one of the roles
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Forbidden(c, "Role information is missing")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "Administrator access required")
		c.Abort()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetAccessToken returns the raw token and its expiry, used by logout
func GetAccessToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(AccessTokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	expiresAt, _ := c.Get(TokenExpiresAtKey)
	t, _ := expiresAt.(time.Time)
	return token, t, true
}

// ActorFromContext builds the explicit identity handed to services.
// Guests get directory.Anonymous.
func ActorFromContext(c *gin.Context) directory.Actor {
	userID, ok := GetUserID(c)
	if !ok {
		return directory.Anonymous
	}
	role, _ := GetUserRole(c)
	return directory.Actor{UserID: userID, Role: directory.Role(role)}
}
