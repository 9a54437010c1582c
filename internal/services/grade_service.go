package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/events"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

type GradeService interface {
	// List returns grades with student and course resolved; a student-role
	// caller only receives grades of their own record, and an unlinked
	// student receives an empty list rather than an error.
	List(ctx context.Context, caller Caller) ([]*models.Grade, error)
	Create(ctx context.Context, req *CreateGradeRequest, caller Caller) (*models.Grade, error)
	Update(ctx context.Context, id uint, req *UpdateGradeRequest, caller Caller) (*models.Grade, error)
	Delete(ctx context.Context, id uint, caller Caller) error
}

type CreateGradeRequest struct {
	StudentID uint       `json:"student_id" validate:"required"`
	CourseID  uint       `json:"course_id" validate:"required"`
	Grade     *float64   `json:"grade" validate:"required,min=0,max=100"`
	Date      *time.Time `json:"date"`
}

type UpdateGradeRequest struct {
	StudentID *uint      `json:"student_id"`
	CourseID  *uint      `json:"course_id"`
	Grade     *float64   `json:"grade" validate:"omitempty,min=0,max=100"`
	Date      *time.Time `json:"date"`
}

type gradeService struct {
	perms     config.Permissions
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
}

func NewGradeService(
	perms config.Permissions,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
) GradeService {
	return &gradeService{
		perms:     perms,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *gradeService) List(ctx context.Context, caller Caller) ([]*models.Grade, error) {
	filters := repositories.GradeFilters{}

	if caller.Role == models.RoleStudent {
		student, err := s.repo.Student().GetByOwner(ctx, caller.UserID, caller.Email)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return []*models.Grade{}, nil
			}
			return nil, fmt.Errorf("failed to resolve student record: %w", err)
		}
		filters.StudentID = &student.ID
	}

	return s.repo.Grade().List(ctx, filters)
}

func (s *gradeService) Create(ctx context.Context, req *CreateGradeRequest, caller Caller) (*models.Grade, error) {
	if !s.perms.Allowed(config.ActionGradeWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "grade", "create", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Reference checks are best-effort and not transactional; a
	// concurrent delete can still leave a dangling grade.
	if err := s.checkReferences(ctx, &req.StudentID, &req.CourseID); err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Grade:     *req.Grade,
		Date:      time.Now().UTC(),
	}
	if req.Date != nil {
		grade.Date = *req.Date
	}

	if err := s.repo.Grade().Create(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}

	created, err := s.repo.Grade().GetByID(ctx, grade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created grade: %w", err)
	}

	s.logger.Info("Grade recorded", "grade_id", created.ID, "student_id", created.StudentID, "course_id", created.CourseID, "recorded_by", caller.UserID)
	s.publishEvent(ctx, events.EventGradeRecorded, created)

	return created, nil
}

func (s *gradeService) Update(ctx context.Context, id uint, req *UpdateGradeRequest, caller Caller) (*models.Grade, error) {
	if !s.perms.Allowed(config.ActionGradeWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "grade", "update", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	grade, err := s.repo.Grade().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGradeNotFound
		}
		return nil, fmt.Errorf("failed to load grade: %w", err)
	}

	if err := s.checkReferences(ctx, req.StudentID, req.CourseID); err != nil {
		return nil, err
	}

	if req.StudentID != nil {
		grade.StudentID = *req.StudentID
	}
	if req.CourseID != nil {
		grade.CourseID = *req.CourseID
	}
	if req.Grade != nil {
		grade.Grade = *req.Grade
	}
	if req.Date != nil {
		grade.Date = *req.Date
	}

	// Clear preloaded relations so a changed reference is not written back
	// as an association.
	grade.Student = models.Student{}
	grade.Course = models.Course{}

	if err := s.repo.Grade().Update(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to update grade: %w", err)
	}

	updated, err := s.repo.Grade().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated grade: %w", err)
	}

	s.logger.Info("Grade updated", "grade_id", updated.ID, "updated_by", caller.UserID)
	s.publishEvent(ctx, events.EventGradeUpdated, updated)

	return updated, nil
}

func (s *gradeService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !s.perms.Allowed(config.ActionGradeDelete, caller.Role) {
		return NewPermissionError(caller.UserID, "grade", "delete", "insufficient role permissions")
	}

	if err := s.repo.Grade().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGradeNotFound
		}
		return fmt.Errorf("failed to delete grade: %w", err)
	}

	s.logger.Info("Grade deleted", "grade_id", id, "deleted_by", caller.UserID)
	s.publishEvent(ctx, events.EventGradeDeleted, &models.Grade{ID: id})
	return nil
}

func (s *gradeService) checkReferences(ctx context.Context, studentID, courseID *uint) error {
	if studentID != nil {
		if _, err := s.repo.Student().GetByID(ctx, *studentID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("failed to resolve student: %w", err)
		}
	}
	if courseID != nil {
		if _, err := s.repo.Course().GetByID(ctx, *courseID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to resolve course: %w", err)
		}
	}
	return nil
}

func (s *gradeService) publishEvent(ctx context.Context, eventType events.EventType, grade *models.Grade) {
	event := events.NewNotificationEvent(eventType, events.GradeEvent{
		GradeID:    grade.ID,
		StudentID:  grade.StudentID,
		CourseID:   grade.CourseID,
		CourseName: grade.Course.Name,
		Grade:      grade.Grade,
		Date:       grade.Date,
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish grade event", "event_type", eventType, "error", err)
	}
}
