package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/db"
	"github.com/ikkim/bizdir-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

type revokedToken struct {
	token string
	ttl   time.Duration
}

func setupAuthServiceTest(t *testing.T) (AuthService, repository.UserRepository, *[]revokedToken) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	revoked := &[]revokedToken{}
	revoke := func(ctx context.Context, token string, ttl time.Duration) error {
		*revoked = append(*revoked, revokedToken{token: token, ttl: ttl})
		return nil
	}

	userRepo := repository.NewUserRepository(testDB)
	authService := NewAuthService(
		userRepo,
		revoke,
		func(ctx context.Context, token string) (bool, error) {
			for _, r := range *revoked {
				if r.token == token {
					return true, nil
				}
			}
			return false, nil
		},
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)

	return authService, userRepo, revoked
}

func TestAuthService_Register(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		phone    string
		wantErr  error
	}{
		{
			name:     "Valid registration",
			email:    "test@example.com",
			password: "password123",
			userName: "Test User",
			phone:    "9876543210",
			wantErr:  nil,
		},
		{
			name:     "Duplicate email",
			email:    "test@example.com",
			password: "password456",
			userName: "Another User",
			phone:    "9123456780",
			wantErr:  ErrEmailAlreadyExists,
		},
		{
			name:     "Duplicate email with different case",
			email:    "  TEST@Example.com",
			password: "password456",
			userName: "Another User",
			wantErr:  ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := authService.Register(
				tt.email,
				tt.password,
				tt.userName,
				tt.phone,
			)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				require.NotNil(t, tokens)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.userName, user.Name)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEmpty(t, tokens.AccessToken)
				assert.NotEmpty(t, tokens.RefreshToken)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	email := "test@example.com"
	password := "password123"
	_, _, err := authService.Register(email, password, "Test User", "9876543210")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "Valid login",
			email:    email,
			password: password,
			wantErr:  nil,
		},
		{
			name:     "Email is case-insensitive",
			email:    "Test@Example.COM",
			password: password,
			wantErr:  nil,
		},
		{
			name:     "Wrong password",
			email:    email,
			password: "wrongpassword",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "Non-existing user",
			email:    "notfound@example.com",
			password: "password123",
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := authService.Login(tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				require.NotNil(t, tokens)
				assert.Equal(t, email, user.Email)
				assert.NotEmpty(t, tokens.AccessToken)
			}
		})
	}
}

func TestAuthService_TokenCarriesRole(t *testing.T) {
	authService, userRepo, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register("admin@example.com", "password123", "Admin", "")
	require.NoError(t, err)
	require.NoError(t, userRepo.UpdateRole(user.ID, model.RoleAdmin))

	_, tokens, err := authService.Login("admin@example.com", "password123")
	require.NoError(t, err)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, revoked := setupAuthServiceTest(t)
	ctx := context.Background()

	t.Run("revokes until expiry", func(t *testing.T) {
		require.NoError(t, authService.Logout(ctx, "token-a", time.Now().Add(10*time.Minute)))
		require.Len(t, *revoked, 1)
		assert.Equal(t, "token-a", (*revoked)[0].token)
		assert.InDelta(t, (10 * time.Minute).Seconds(), (*revoked)[0].ttl.Seconds(), 5)
	})

	t.Run("already expired token is ignored", func(t *testing.T) {
		require.NoError(t, authService.Logout(ctx, "token-b", time.Now().Add(-time.Minute)))
		assert.Len(t, *revoked, 1)
	})

	t.Run("revoker error is returned", func(t *testing.T) {
		failing := NewAuthService(nil, func(context.Context, string, time.Duration) error {
			return errors.New("redis down")
		}, nil, testJWTSecret, time.Minute, time.Hour)
		assert.Error(t, failing.Logout(ctx, "token-c", time.Now().Add(time.Minute)))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	authService, userRepo, revoked := setupAuthServiceTest(t)
	ctx := context.Background()

	user, tokens, err := authService.Register("owner@example.com", "password123", "Owner", "")
	require.NoError(t, err)
	require.NoError(t, userRepo.UpdateRole(user.ID, model.RoleAdmin))

	t.Run("access token is refused", func(t *testing.T) {
		_, err := authService.Refresh(ctx, tokens.AccessToken)
		assert.ErrorIs(t, err, util.ErrInvalidToken)
	})

	refreshed, err := authService.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	claims, err := util.ValidateAccessToken(refreshed.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role, "refresh picks up the current role")

	require.NotEmpty(t, *revoked)
	assert.Equal(t, tokens.RefreshToken, (*revoked)[len(*revoked)-1].token)

	t.Run("used refresh token cannot be replayed", func(t *testing.T) {
		_, err := authService.Refresh(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		require.NoError(t, authService.RevokeRefreshToken(ctx, refreshed.RefreshToken))
		_, err := authService.Refresh(ctx, refreshed.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register("test@example.com", "password123", "Test User", "9876543210")
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  uint
		wantErr error
	}{
		{name: "Existing user", userID: user.ID},
		{name: "Non-existing user", userID: 9999, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := authService.GetUserByID(tt.userID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, found)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.Email, found.Email)
				assert.Equal(t, user.Name, found.Name)
			}
		})
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register("test@example.com", "password123", "Test User", "9876543210")
	require.NoError(t, err)

	updated, err := authService.UpdateProfile(user.ID, "  Renamed  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "9876543210", updated.Phone, "blank phone keeps the current value")

	found, err := authService.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name)

	_, err = authService.UpdateProfile(9999, "x", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_PasswordSecurity(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	password := "mySecretPassword123"
	user, _, err := authService.Register("test@example.com", password, "Test User", "")
	require.NoError(t, err)

	assert.NotEqual(t, password, user.PasswordHash)
	assert.Contains(t, user.PasswordHash, "$2a$")
}
