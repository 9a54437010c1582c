package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/events"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "student-records-service",
		TokenTTL:    time.Hour,
		AdminEmails: []string{"root@school.edu"},
	}
}

func newTestAuthService(repo *MockRepository, verifier auth.GoogleVerifier) (AuthService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewAuthService(testConfig(), repo, testLogger(), utils.NewValidator(), publisher, verifier)
	return svc, publisher
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name        string
		request     *RegisterRequest
		setupMocks  func(*MockUserRepository)
		expectError bool
		expectRole  models.UserRole
	}{
		{
			name: "successful registration defaults to student",
			request: &RegisterRequest{
				Name:     "Ada Student",
				Email:    "ada@school.edu",
				Password: "secret123",
			},
			setupMocks: func(userRepo *MockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "ada@school.edu").Return(false, nil)
				userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "ada@school.edu" && u.Role == models.RoleStudent && u.HasLocalPassword()
				})).Return(nil)
			},
			expectRole: models.RoleStudent,
		},
		{
			name: "admin email is promoted",
			request: &RegisterRequest{
				Name:     "Root",
				Email:    "Root@School.edu",
				Password: "secret123",
			},
			setupMocks: func(userRepo *MockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "root@school.edu").Return(false, nil)
				userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Role == models.RoleAdmin
				})).Return(nil)
			},
			expectRole: models.RoleAdmin,
		},
		{
			name: "elevated role request is rejected",
			request: &RegisterRequest{
				Name:     "Sneaky",
				Email:    "sneaky@school.edu",
				Password: "secret123",
				Role:     "admin",
			},
			setupMocks:  func(userRepo *MockUserRepository) {},
			expectError: true,
		},
		{
			name: "duplicate email is rejected",
			request: &RegisterRequest{
				Name:     "Ada Student",
				Email:    "ada@school.edu",
				Password: "secret123",
			},
			setupMocks: func(userRepo *MockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "ada@school.edu").Return(true, nil)
			},
			expectError: true,
		},
		{
			name: "short password is rejected",
			request: &RegisterRequest{
				Name:     "Ada Student",
				Email:    "ada@school.edu",
				Password: "short",
			},
			setupMocks:  func(userRepo *MockUserRepository) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			tt.setupMocks(repo.userRepo)
			svc, publisher := newTestAuthService(repo, nil)

			user, err := svc.Register(context.Background(), tt.request)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, user)
				assert.Empty(t, publisher.GetPublishedEvents())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectRole, user.Role)
				assert.NotEqual(t, tt.request.Password, *user.PasswordHash)
				assert.Len(t, publisher.GetPublishedEvents(), 1)
				assert.Equal(t, events.EventUserRegistered, publisher.GetPublishedEvents()[0].Type)
			}
			repo.userRepo.AssertExpectations(t)
		})
	}

	t.Run("losing a concurrent registration race maps to a conflict", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("ExistsByEmail", mock.Anything, "ada@school.edu").Return(false, nil)
		repo.userRepo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)
		svc, publisher := newTestAuthService(repo, nil)

		user, err := svc.Register(context.Background(), &RegisterRequest{
			Name:     "Ada Student",
			Email:    "ada@school.edu",
			Password: "secret123",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.True(t, IsConflict(err))
		assert.Empty(t, publisher.GetPublishedEvents())
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	assert.NoError(t, err)

	localUser := func() *models.User {
		return &models.User{
			ID:           7,
			Name:         "Ada Student",
			Email:        "ada@school.edu",
			PasswordHash: &hash,
			Role:         models.RoleStudent,
			Provider:     models.ProviderLocal,
		}
	}

	t.Run("successful login issues a token", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("GetByEmail", mock.Anything, "ada@school.edu").Return(localUser(), nil)
		repo.userRepo.On("UpdateLastLogin", mock.Anything, uint(7), mock.Anything).Return(nil)
		svc, _ := newTestAuthService(repo, nil)

		token, user, err := svc.Login(context.Background(), "ada@school.edu", "correct-horse")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotNil(t, user.LastLoginAt)

		claims, err := auth.ParseToken("test-secret", token)
		assert.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "student", claims.Role)
		assert.Equal(t, "ada@school.edu", claims.Email)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("GetByEmail", mock.Anything, "ada@school.edu").Return(localUser(), nil)
		svc, _ := newTestAuthService(repo, nil)

		token, _, err := svc.Login(context.Background(), "ada@school.edu", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("unknown email fails with the same error", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("GetByEmail", mock.Anything, "ghost@school.edu").Return(nil, gorm.ErrRecordNotFound)
		svc, _ := newTestAuthService(repo, nil)

		_, _, err := svc.Login(context.Background(), "ghost@school.edu", "whatever")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("account without a local password fails closed", func(t *testing.T) {
		repo := newMockRepository()
		oauthUser := localUser()
		oauthUser.PasswordHash = nil
		oauthUser.Provider = models.ProviderGoogle
		repo.userRepo.On("GetByEmail", mock.Anything, "ada@school.edu").Return(oauthUser, nil)
		svc, _ := newTestAuthService(repo, nil)

		_, _, err := svc.Login(context.Background(), "ada@school.edu", "")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_LoginWithIdentity(t *testing.T) {
	identity := &auth.GoogleIdentity{
		Email:   "New.Person@School.edu",
		Name:    "New Person",
		Picture: "https://example.com/p.jpg",
	}

	t.Run("creates a new account for an unknown identity", func(t *testing.T) {
		repo := newMockRepository()
		repo.userRepo.On("GetByEmail", mock.Anything, "new.person@school.edu").Return(nil, gorm.ErrRecordNotFound)
		repo.userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "new.person@school.edu" &&
				u.Provider == models.ProviderGoogle &&
				u.Role == models.RoleStudent &&
				u.HasLocalPassword()
		})).Return(nil)
		repo.userRepo.On("UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		svc, publisher := newTestAuthService(repo, nil)

		token, user, err := svc.LoginWithIdentity(context.Background(), identity, models.ProviderGoogle)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "New Person", user.Name)
		assert.Len(t, publisher.GetPublishedEvents(), 1)
		repo.userRepo.AssertExpectations(t)
	})

	t.Run("links the provider to an existing local account", func(t *testing.T) {
		hash, err := auth.HashPassword("existing-pass")
		assert.NoError(t, err)

		existing := &models.User{
			ID:           3,
			Name:         "New Person",
			Email:        "new.person@school.edu",
			PasswordHash: &hash,
			Role:         models.RoleScolarite,
			Provider:     models.ProviderLocal,
		}

		repo := newMockRepository()
		repo.userRepo.On("GetByEmail", mock.Anything, "new.person@school.edu").Return(existing, nil)
		repo.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			// Linking keeps the local hash and the existing role.
			return u.Provider == models.ProviderGoogle &&
				u.PasswordHash == &hash &&
				u.Role == models.RoleScolarite
		})).Return(nil)
		repo.userRepo.On("UpdateLastLogin", mock.Anything, uint(3), mock.Anything).Return(nil)
		svc, _ := newTestAuthService(repo, nil)

		token, user, err := svc.LoginWithIdentity(context.Background(), identity, models.ProviderGoogle)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, models.ProviderGoogle, user.Provider)
		repo.userRepo.AssertExpectations(t)
	})
}

func TestAuthService_SetPassword(t *testing.T) {
	t.Run("rejects short passwords", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestAuthService(repo, nil)

		err := svc.SetPassword(context.Background(), 1, "tiny")

		assert.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("replaces the stored hash", func(t *testing.T) {
		old, err := auth.HashPassword("old-password")
		assert.NoError(t, err)
		user := &models.User{ID: 1, Email: "ada@school.edu", PasswordHash: &old}

		repo := newMockRepository()
		repo.userRepo.On("GetByID", mock.Anything, uint(1)).Return(user, nil)
		repo.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.HasLocalPassword() && *u.PasswordHash != old
		})).Return(nil)
		svc, _ := newTestAuthService(repo, nil)

		err = svc.SetPassword(context.Background(), 1, "brand-new-pass")

		assert.NoError(t, err)
		assert.NoError(t, auth.CheckPassword(*user.PasswordHash, "brand-new-pass"))
		repo.userRepo.AssertExpectations(t)
	})
}
