package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/events"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

type StudentService interface {
	// List returns all students for staff; a student-role caller only sees
	// their own record (or nothing when unlinked).
	List(ctx context.Context, caller Caller) ([]*models.Student, error)
	Create(ctx context.Context, req *CreateStudentRequest, caller Caller) (*models.Student, error)
	Update(ctx context.Context, id uint, req *UpdateStudentRequest, caller Caller) (*models.Student, error)
	Delete(ctx context.Context, id uint, caller Caller) error
}

type CreateStudentRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	UserID    *uint   `json:"user_id"`
}

type UpdateStudentRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	UserID    *uint   `json:"user_id"`
}

type studentService struct {
	perms     config.Permissions
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
}

func NewStudentService(
	perms config.Permissions,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
) StudentService {
	return &studentService{
		perms:     perms,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *studentService) List(ctx context.Context, caller Caller) ([]*models.Student, error) {
	if caller.Role == models.RoleStudent {
		student, err := s.repo.Student().GetByOwner(ctx, caller.UserID, caller.Email)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				// An authorized but unlinked student sees an empty set.
				return []*models.Student{}, nil
			}
			return nil, fmt.Errorf("failed to resolve student record: %w", err)
		}
		return []*models.Student{student}, nil
	}
	return s.repo.Student().List(ctx)
}

func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest, caller Caller) (*models.Student, error) {
	if !s.perms.Allowed(config.ActionStudentWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "student", "create", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student := &models.Student{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserID:    req.UserID,
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		student.Email = &email
	}

	if err := s.repo.Student().Create(ctx, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("Student created", "student_id", student.ID, "created_by", caller.UserID)
	s.publishEvent(ctx, events.EventStudentCreated, events.StudentCreatedEvent{
		StudentID: student.ID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Email:     student.Email,
	})

	return student, nil
}

func (s *studentService) Update(ctx context.Context, id uint, req *UpdateStudentRequest, caller Caller) (*models.Student, error) {
	if !s.perms.Allowed(config.ActionStudentWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "student", "update", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		student.Email = &email
	}
	if req.UserID != nil {
		student.UserID = req.UserID
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	s.logger.Info("Student updated", "student_id", student.ID, "updated_by", caller.UserID)
	return student, nil
}

// Delete removes the record unconditionally; dependent grades are kept
// (no cascade), matching the legacy behavior.
func (s *studentService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !s.perms.Allowed(config.ActionStudentDelete, caller.Role) {
		return NewPermissionError(caller.UserID, "student", "delete", "insufficient role permissions")
	}

	if err := s.repo.Student().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.logger.Info("Student deleted", "student_id", id, "deleted_by", caller.UserID)
	s.publishEvent(ctx, events.EventStudentDeleted, events.StudentDeletedEvent{StudentID: id})
	return nil
}

func (s *studentService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	event := events.NewNotificationEvent(eventType, data)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish student event", "event_type", eventType, "error", err)
	}
}
