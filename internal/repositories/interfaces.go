package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/student-records-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type GradeFilters struct {
	StudentID *uint `json:"student_id"`
	CourseID  *uint `json:"course_id"`
}

// ===== SHARED STATISTICS STRUCTS =====

// GradeAggregate is the collection-wide reduction over grade values.
type GradeAggregate struct {
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// CourseGradeGroup is one row of the per-course grouped aggregation.
// Grouping order follows whatever the database returns; callers must not
// depend on it.
type CourseGradeGroup struct {
	CourseID   uint    `json:"course_id"`
	CourseName string  `json:"course_name"`
	CourseCode string  `json:"course_code"`
	Count      int64   `json:"count"`
	AvgGrade   float64 `json:"avg_grade"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uint, loginTime time.Time) error
	Count(ctx context.Context) (int64, error)
}

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	// GetByOwner resolves the student record linked to a user account,
	// either through the UserID link or, failing that, by email.
	GetByOwner(ctx context.Context, userID uint, email string) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	// GetByID returns the grade with its student and course resolved.
	GetByID(ctx context.Context, id uint) (*models.Grade, error)
	List(ctx context.Context, filters GradeFilters) ([]*models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	// Aggregate reduces grade values (optionally scoped to one student).
	Aggregate(ctx context.Context, studentID *uint) (*GradeAggregate, error)
	// GroupByCourse groups grades by course (optionally scoped to one student).
	GroupByCourse(ctx context.Context, studentID *uint) ([]CourseGradeGroup, error)
}

// Repository aggregates entity repositories for injection into services.
type Repository interface {
	User() UserRepository
	Student() StudentRepository
	Course() CourseRepository
	Grade() GradeRepository
}

// IsNotFoundError reports whether a repository error means the id did not
// resolve to a record.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether a repository error means a unique
// constraint rejected the write. Requires TranslateError on the gorm config.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
