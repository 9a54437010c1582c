package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

// UserService covers administrator management of accounts. Registration,
// login and self-service password changes live in AuthService.
type UserService interface {
	List(ctx context.Context, caller Caller) ([]*models.User, error)
	Create(ctx context.Context, req *CreateUserRequest, caller Caller) (*models.User, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest, caller Caller) (*models.User, error)
	Delete(ctx context.Context, id uint, caller Caller) error
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role"`
}

type userService struct {
	perms     config.Permissions
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewUserService(perms config.Permissions, repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) UserService {
	return &userService{
		perms:     perms,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) List(ctx context.Context, caller Caller) ([]*models.User, error) {
	if !s.perms.Allowed(config.ActionUserManage, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "user", "list", "insufficient role permissions")
	}
	return s.repo.User().List(ctx)
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, caller Caller) (*models.User, error) {
	if !s.perms.Allowed(config.ActionUserManage, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "user", "create", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	role := models.RoleStudent
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not admin, scolarite or student", ErrInvalidRole, req.Role)
		}
		role = parsed
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Provider:     models.ProviderLocal,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created by admin", "user_id", user.ID, "role", role, "created_by", caller.UserID)
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest, caller Caller) (*models.User, error) {
	if !s.perms.Allowed(config.ActionUserManage, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "user", "update", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Partial merge: only provided fields overwrite.
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			taken, err := s.repo.User().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not admin, scolarite or student", ErrInvalidRole, *req.Role)
		}
		user.Role = role
	}
	// The hash is recomputed only when a new plaintext arrives; unrelated
	// field updates never re-hash a stored hash.
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = &hash
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", user.ID, "updated_by", caller.UserID)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !s.perms.Allowed(config.ActionUserManage, caller.Role) {
		return NewPermissionError(caller.UserID, "user", "delete", "insufficient role permissions")
	}

	if err := s.repo.User().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", "user_id", id, "deleted_by", caller.UserID)
	return nil
}
