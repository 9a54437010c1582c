package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

func newTestUserService(repo *MockRepository) UserService {
	return NewUserService(config.LoadPermissions(), repo, testLogger(), utils.NewValidator())
}

var (
	adminCaller     = Caller{UserID: 1, Role: models.RoleAdmin, Email: "root@school.edu"}
	scolariteCaller = Caller{UserID: 2, Role: models.RoleScolarite, Email: "staff@school.edu"}
	studentCaller   = Caller{UserID: 3, Role: models.RoleStudent, Email: "ada@school.edu"}
)

func TestUserService_List(t *testing.T) {
	t.Run("admin may list accounts", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("List", mock.Anything).Return([]*models.User{{ID: 1}}, nil)
		svc := newTestUserService(repo)

		users, err := svc.List(context.Background(), adminCaller)

		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("non-admin roles are denied", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestUserService(repo)

		for _, caller := range []Caller{scolariteCaller, studentCaller} {
			users, err := svc.List(context.Background(), caller)

			assert.Nil(t, users)
			assert.True(t, IsForbidden(err))
		}
		// Denied calls must never reach the repository.
		repo.userRepo.AssertNotCalled(t, "List", mock.Anything)
	})
}

func TestUserService_Create(t *testing.T) {
	t.Run("creates an account with the requested role", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("ExistsByEmail", mock.Anything, "staff@school.edu").Return(false, nil)
		repo.userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Role == models.RoleScolarite && u.Provider == models.ProviderLocal
		})).Return(nil)
		svc := newTestUserService(repo)

		user, err := svc.Create(context.Background(), &CreateUserRequest{
			Name:     "Staff Member",
			Email:    "Staff@School.edu",
			Password: "secret123",
			Role:     "scolarite",
		}, adminCaller)

		assert.NoError(t, err)
		assert.Equal(t, "staff@school.edu", user.Email)
		repo.userRepo.AssertExpectations(t)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil).Maybe()
		svc := newTestUserService(repo)

		_, err := svc.Create(context.Background(), &CreateUserRequest{
			Name:     "X",
			Email:    "x@school.edu",
			Password: "secret123",
			Role:     "superuser",
		}, adminCaller)

		assert.ErrorIs(t, err, ErrInvalidRole)
		assert.True(t, IsValidation(err))
		repo.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("scolarite cannot manage accounts", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestUserService(repo)

		_, err := svc.Create(context.Background(), &CreateUserRequest{
			Name:     "X",
			Email:    "x@school.edu",
			Password: "secret123",
		}, scolariteCaller)

		assert.True(t, IsForbidden(err))
	})
}

func TestUserService_Update(t *testing.T) {
	t.Run("partial update does not rehash an untouched password", func(t *testing.T) {
		hash, err := auth.HashPassword("keep-me")
		assert.NoError(t, err)
		existing := &models.User{ID: 5, Name: "Old Name", Email: "old@school.edu", PasswordHash: &hash, Role: models.RoleStudent}

		repo := newMockRepository()
		repo.userRepo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		repo.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Name == "New Name" && *u.PasswordHash == hash
		})).Return(nil)
		svc := newTestUserService(repo)

		user, err := svc.Update(context.Background(), 5, &UpdateUserRequest{
			Name: stringPtr("New Name"),
		}, adminCaller)

		assert.NoError(t, err)
		assert.Equal(t, "New Name", user.Name)
		assert.NoError(t, auth.CheckPassword(*user.PasswordHash, "keep-me"))
		repo.userRepo.AssertExpectations(t)
	})

	t.Run("email change to a taken address conflicts", func(t *testing.T) {
		existing := &models.User{ID: 5, Email: "old@school.edu", Role: models.RoleStudent}

		repo := newMockRepository()
		repo.userRepo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		repo.userRepo.On("ExistsByEmail", mock.Anything, "taken@school.edu").Return(true, nil)
		svc := newTestUserService(repo)

		_, err := svc.Update(context.Background(), 5, &UpdateUserRequest{
			Email: stringPtr("taken@school.edu"),
		}, adminCaller)

		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("missing account maps to not found", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)
		svc := newTestUserService(repo)

		_, err := svc.Update(context.Background(), 99, &UpdateUserRequest{Name: stringPtr("X")}, adminCaller)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("deleting a missing account maps to not found", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("Delete", mock.Anything, uint(42)).Return(gorm.ErrRecordNotFound)
		svc := newTestUserService(repo)

		err := svc.Delete(context.Background(), 42, adminCaller)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("student cannot delete accounts", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestUserService(repo)

		err := svc.Delete(context.Background(), 42, studentCaller)

		assert.True(t, IsForbidden(err))
		repo.userRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
