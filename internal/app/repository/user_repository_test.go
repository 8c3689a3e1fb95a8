package repository

import (
	"testing"

	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := setupRepoTest(t)
	repo := NewUserRepository(testDB)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name:    "valid user",
			user:    &model.User{Email: "Test@Example.com", PasswordHash: "hash", Name: "Test User", Role: model.RoleUser},
			wantErr: false,
		},
		{
			name:    "duplicate email ignoring case",
			user:    &model.User{Email: "test@example.com", PasswordHash: "hash", Name: "Another User", Role: model.RoleUser},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotZero(t, tt.user.ID)
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	testDB := setupRepoTest(t)
	repo := NewUserRepository(testDB)

	user := createTestUser(t, testDB, "user@example.com", model.RoleUser)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	found, err := repo.FindByEmail("USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	admins, err := repo.FindByRole(model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, admin.ID, admins[0].ID)

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_RoleAndDelete(t *testing.T) {
	testDB := setupRepoTest(t)
	repo := NewUserRepository(testDB)
	user := createTestUser(t, testDB, "user@example.com", model.RoleUser)

	require.NoError(t, repo.UpdateRole(user.ID, model.RoleAdmin))
	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, found.Role)

	require.NoError(t, repo.Delete(user.ID))
	_, err = repo.FindByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdateRole(user.ID, model.RoleUser), gorm.ErrRecordNotFound)
}
