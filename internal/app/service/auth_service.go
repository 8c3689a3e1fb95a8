package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/ikkim/bizdir-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// TokenRevoker stores revoked tokens until they expire.
type TokenRevoker func(ctx context.Context, token string, ttl time.Duration) error

// TokenRevocationCheck reports whether a token was revoked.
type TokenRevocationCheck func(ctx context.Context, token string) (bool, error)

type AuthService interface {
	Register(email, password, name, phone string) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, name, phone string) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	revoke        TokenRevoker
	isRevoked     TokenRevocationCheck
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	revoke TokenRevoker,
	isRevoked TokenRevocationCheck,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		revoke:        revoke,
		isRevoked:     isRevoked,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(email, password, name, phone string) (*model.User, *util.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(name),
		Phone:        strings.TrimSpace(phone),
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

// Logout revokes the access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if s.revoke == nil || token == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoke(ctx, token, ttl); err != nil {
		logger.Error("Failed to revoke token on logout", err, nil)
		return err
	}
	return nil
}

// Refresh trades a refresh token for a new token pair. The presented refresh
// token is revoked so it can be used only once.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if s.isRevoked != nil {
		revoked, err := s.isRevoked(ctx, refreshToken)
		if err != nil {
			logger.Warn("Refresh token revocation check failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	// the role is reloaded so promotions take effect on refresh
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidToken
		}
		return nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.Logout(ctx, refreshToken, s.refreshDeadline(claims)); err != nil {
		logger.Warn("Failed to revoke used refresh token", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	logger.Info("Token refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return tokens, nil
}

func (s *authService) refreshDeadline(claims *util.Claims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Now().Add(s.refreshExpiry)
	}
	return claims.ExpiresAt.Time
}

// RevokeRefreshToken revokes a refresh token for the rest of its lifetime.
// Tokens that are already invalid need no revocation.
func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	claims, err := util.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil
	}
	return s.Logout(ctx, refreshToken, s.refreshDeadline(claims))
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, name, phone string) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		user.Phone = phone
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}
