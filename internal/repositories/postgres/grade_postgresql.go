package postgres

import (
	"context"

	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"gorm.io/gorm"
)

type GradePostgreSQL struct {
	db *gorm.DB
}

func NewGradePostgreSQL(db *gorm.DB) repositories.GradeRepository {
	return &GradePostgreSQL{db: db}
}

func (g *GradePostgreSQL) Create(ctx context.Context, grade *models.Grade) error {
	return g.db.WithContext(ctx).Create(grade).Error
}

func (g *GradePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	var grade models.Grade
	err := g.db.WithContext(ctx).
		Preload("Student").
		Preload("Course").
		First(&grade, id).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (g *GradePostgreSQL) List(ctx context.Context, filters repositories.GradeFilters) ([]*models.Grade, error) {
	query := g.db.WithContext(ctx).
		Preload("Student").
		Preload("Course")

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}

	var grades []*models.Grade
	if err := query.Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (g *GradePostgreSQL) Update(ctx context.Context, grade *models.Grade) error {
	return g.db.WithContext(ctx).Save(grade).Error
}

func (g *GradePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := g.db.WithContext(ctx).Delete(&models.Grade{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GradePostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Grade{}).Count(&count).Error
	return count, err
}

// Aggregate reduces grade values in a single query. COALESCE keeps the
// zero-value contract for an empty grade set.
func (g *GradePostgreSQL) Aggregate(ctx context.Context, studentID *uint) (*repositories.GradeAggregate, error) {
	query := g.db.WithContext(ctx).Model(&models.Grade{}).
		Select("COUNT(*) AS count, COALESCE(AVG(grade), 0) AS avg, COALESCE(MAX(grade), 0) AS max, COALESCE(MIN(grade), 0) AS min")
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var agg repositories.GradeAggregate
	if err := query.Scan(&agg).Error; err != nil {
		return nil, err
	}
	return &agg, nil
}

func (g *GradePostgreSQL) GroupByCourse(ctx context.Context, studentID *uint) ([]repositories.CourseGradeGroup, error) {
	query := g.db.WithContext(ctx).Model(&models.Grade{}).
		Select("courses.id AS course_id, courses.name AS course_name, courses.code AS course_code, COUNT(grades.id) AS count, AVG(grades.grade) AS avg_grade").
		Joins("JOIN courses ON courses.id = grades.course_id").
		Group("courses.id, courses.name, courses.code")
	if studentID != nil {
		query = query.Where("grades.student_id = ?", *studentID)
	}

	var groups []repositories.CourseGradeGroup
	if err := query.Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
