package services

import (
	"log/slog"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/events"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

// Caller is the authenticated identity resolved by the authorization gate
// and threaded through every service call.
type Caller struct {
	UserID uint
	Role   models.UserRole
	Email  string
}

// ServiceManager aggregates all services for injection into handlers.
type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Student() StudentService
	Course() CourseService
	Grade() GradeService
	Stats() StatsService
	ImportExport() ImportExportService
}

type serviceManager struct {
	auth         AuthService
	user         UserService
	student      StudentService
	course       CourseService
	grade        GradeService
	stats        StatsService
	importExport ImportExportService
}

func NewServiceManager(
	cfg *config.Config,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
	verifier auth.GoogleVerifier,
) ServiceManager {
	return &serviceManager{
		auth:         NewAuthService(cfg, repo, logger, validator, publisher, verifier),
		user:         NewUserService(cfg.Permissions, repo, logger, validator),
		student:      NewStudentService(cfg.Permissions, repo, logger, validator, publisher),
		course:       NewCourseService(cfg.Permissions, repo, logger, validator),
		grade:        NewGradeService(cfg.Permissions, repo, logger, validator, publisher),
		stats:        NewStatsService(repo, logger),
		importExport: NewImportExportService(cfg.Permissions, repo, logger, validator),
	}
}

func (m *serviceManager) Auth() AuthService                 { return m.auth }
func (m *serviceManager) User() UserService                 { return m.user }
func (m *serviceManager) Student() StudentService           { return m.student }
func (m *serviceManager) Course() CourseService             { return m.course }
func (m *serviceManager) Grade() GradeService               { return m.grade }
func (m *serviceManager) Stats() StatsService               { return m.stats }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
