package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

type CourseService interface {
	List(ctx context.Context) ([]*models.Course, error)
	Create(ctx context.Context, req *CreateCourseRequest, caller Caller) (*models.Course, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, caller Caller) (*models.Course, error)
	Delete(ctx context.Context, id uint, caller Caller) error
}

type CreateCourseRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Code string `json:"code" validate:"required,min=1,max=50"`
}

type UpdateCourseRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code *string `json:"code" validate:"omitempty,min=1,max=50"`
}

type courseService struct {
	perms     config.Permissions
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewCourseService(perms config.Permissions, repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) CourseService {
	return &courseService{
		perms:     perms,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) List(ctx context.Context) ([]*models.Course, error) {
	return s.repo.Course().List(ctx)
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, caller Caller) (*models.Course, error) {
	if !s.perms.Allowed(config.ActionCourseWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "course", "create", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name: req.Name,
		Code: req.Code,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "code", course.Code, "created_by", caller.UserID)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, caller Caller) (*models.Course, error) {
	if !s.perms.Allowed(config.ActionCourseWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "course", "update", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Code != nil {
		course.Code = *req.Code
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", course.ID, "updated_by", caller.UserID)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !s.perms.Allowed(config.ActionCourseDelete, caller.Role) {
		return NewPermissionError(caller.UserID, "course", "delete", "insufficient role permissions")
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "deleted_by", caller.UserID)
	return nil
}
