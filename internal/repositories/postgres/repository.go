package postgres

import (
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	user    repositories.UserRepository
	student repositories.StudentRepository
	course  repositories.CourseRepository
	grade   repositories.GradeRepository
}

// NewRepository builds the PostgreSQL-backed repository aggregate.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		user:    NewUserPostgreSQL(db),
		student: NewStudentPostgreSQL(db),
		course:  NewCoursePostgreSQL(db),
		grade:   NewGradePostgreSQL(db),
	}
}

func (r *repository) User() repositories.UserRepository       { return r.user }
func (r *repository) Student() repositories.StudentRepository { return r.student }
func (r *repository) Course() repositories.CourseRepository   { return r.course }
func (r *repository) Grade() repositories.GradeRepository     { return r.grade }
