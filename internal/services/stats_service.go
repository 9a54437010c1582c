package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
)

// StatsService aggregates record statistics shaped by the caller's role.
type StatsService interface {
	GetStats(ctx context.Context, caller Caller) (any, error)
}

// GlobalStats is the staff-facing aggregation. TotalUsers is only present
// for administrators.
type GlobalStats struct {
	Role           string           `json:"role"`
	TotalStudents  int64            `json:"total_students"`
	TotalCourses   int64            `json:"total_courses"`
	TotalGrades    int64            `json:"total_grades"`
	TotalUsers     *int64           `json:"total_users,omitempty"`
	AvgGrade       float64          `json:"avg_grade"`
	MaxGrade       float64          `json:"max_grade"`
	MinGrade       float64          `json:"min_grade"`
	GradesByCourse []CourseStatsRow `json:"grades_by_course"`
}

type CourseStatsRow struct {
	CourseName string  `json:"course_name"`
	CourseCode string  `json:"course_code"`
	Count      int64   `json:"count"`
	AvgGrade   float64 `json:"avg_grade"`
}

// StudentStats is scoped to the caller's own record. Message is set when
// the account has no linked student record.
type StudentStats struct {
	Role           string            `json:"role"`
	StudentName    string            `json:"student_name,omitempty"`
	StudentEmail   string            `json:"student_email,omitempty"`
	Message        string            `json:"message,omitempty"`
	TotalGrades    int64             `json:"total_grades"`
	AvgGrade       float64           `json:"avg_grade"`
	MaxGrade       float64           `json:"max_grade"`
	MinGrade       float64           `json:"min_grade"`
	GradesByCourse []StudentGradeRow `json:"grades_by_course"`
}

type StudentGradeRow struct {
	CourseName string    `json:"course_name"`
	CourseCode string    `json:"course_code"`
	Grade      float64   `json:"grade"`
	Date       time.Time `json:"date"`
}

type statsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewStatsService(repo repositories.Repository, logger *slog.Logger) StatsService {
	return &statsService{repo: repo, logger: logger}
}

func (s *statsService) GetStats(ctx context.Context, caller Caller) (any, error) {
	if caller.Role == models.RoleStudent {
		return s.studentStats(ctx, caller)
	}
	return s.globalStats(ctx, caller)
}

func (s *statsService) globalStats(ctx context.Context, caller Caller) (*GlobalStats, error) {
	totalStudents, err := s.repo.Student().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	totalCourses, err := s.repo.Course().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	agg, err := s.repo.Grade().Aggregate(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grades: %w", err)
	}

	groups, err := s.repo.Grade().GroupByCourse(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to group grades: %w", err)
	}
	byCourse := make([]CourseStatsRow, 0, len(groups))
	for _, g := range groups {
		byCourse = append(byCourse, CourseStatsRow{
			CourseName: g.CourseName,
			CourseCode: g.CourseCode,
			Count:      g.Count,
			AvgGrade:   round2(g.AvgGrade),
		})
	}

	stats := &GlobalStats{
		Role:           string(caller.Role),
		TotalStudents:  totalStudents,
		TotalCourses:   totalCourses,
		TotalGrades:    agg.Count,
		AvgGrade:       round2(agg.Avg),
		MaxGrade:       agg.Max,
		MinGrade:       agg.Min,
		GradesByCourse: byCourse,
	}

	if caller.Role == models.RoleAdmin {
		totalUsers, err := s.repo.User().Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		stats.TotalUsers = &totalUsers
	}

	return stats, nil
}

func (s *statsService) studentStats(ctx context.Context, caller Caller) (*StudentStats, error) {
	student, err := s.repo.Student().GetByOwner(ctx, caller.UserID, caller.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Distinct from "zero grades": the account has no student
			// record at all.
			return &StudentStats{
				Role:           string(caller.Role),
				Message:        "no student record found for this account",
				GradesByCourse: []StudentGradeRow{},
			}, nil
		}
		return nil, fmt.Errorf("failed to resolve student record: %w", err)
	}

	agg, err := s.repo.Grade().Aggregate(ctx, &student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grades: %w", err)
	}

	grades, err := s.repo.Grade().List(ctx, repositories.GradeFilters{StudentID: &student.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	rows := make([]StudentGradeRow, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, StudentGradeRow{
			CourseName: g.Course.Name,
			CourseCode: g.Course.Code,
			Grade:      g.Grade,
			Date:       g.Date,
		})
	}

	stats := &StudentStats{
		Role:           string(caller.Role),
		StudentName:    student.FirstName + " " + student.LastName,
		TotalGrades:    agg.Count,
		AvgGrade:       round2(agg.Avg),
		MaxGrade:       agg.Max,
		MinGrade:       agg.Min,
		GradesByCourse: rows,
	}
	if student.Email != nil {
		stats.StudentEmail = *student.Email
	}

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
