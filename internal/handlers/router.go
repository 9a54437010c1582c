package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/services"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	cfg            *config.Config
	authHandler    *AuthHandler
	userHandler    *UserHandler
	studentHandler *StudentHandler
	courseHandler  *CourseHandler
	gradeHandler   *GradeHandler
	statsHandler   *StatsHandler
}

func NewHandlerManager(
	cfg *config.Config,
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		cfg:            cfg,
		authHandler:    NewAuthHandler(serviceManager.Auth(), cfg, validator, logger),
		userHandler:    NewUserHandler(serviceManager.User(), validator, logger),
		studentHandler: NewStudentHandler(serviceManager.Student(), serviceManager.ImportExport(), validator, logger),
		courseHandler:  NewCourseHandler(serviceManager.Course(), validator, logger),
		gradeHandler:   NewGradeHandler(serviceManager.Grade(), serviceManager.ImportExport(), validator, logger),
		statsHandler:   NewStatsHandler(serviceManager.Stats(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "student-records-service",
		})
	})

	api := router.Group("/api")
	perms := hm.cfg.Permissions

	// Public auth routes
	users := api.Group("/users")
	{
		users.POST("/register", hm.authHandler.Register)
		users.POST("/login", hm.authHandler.Login)
		users.GET("/oauth/login", hm.authHandler.OAuthLogin)
		users.GET("/oauth/callback", hm.authHandler.OAuthCallback)
	}
	api.POST("/auth/google", hm.authHandler.GoogleLogin)

	// Everything below requires a valid token.
	authed := api.Group("")
	authed.Use(Authenticate(hm.cfg.JWTSecret))
	{
		authed.GET("/users/me", hm.authHandler.Me)
		authed.POST("/users/set-password", hm.authHandler.SetPassword)

		// Account management
		manage := authed.Group("/users", RequireRoles(perms.Roles(config.ActionUserManage)...))
		{
			manage.GET("", hm.userHandler.ListUsers)
			manage.POST("", hm.userHandler.CreateUser)
			manage.PUT("/:id", hm.userHandler.UpdateUser)
			manage.DELETE("/:id", hm.userHandler.DeleteUser)
		}

		// Student routes
		students := authed.Group("/students")
		{
			students.GET("", hm.studentHandler.ListStudents)
			students.POST("", RequireRoles(perms.Roles(config.ActionStudentWrite)...), hm.studentHandler.CreateStudent)
			students.POST("/import", RequireRoles(perms.Roles(config.ActionStudentWrite)...), hm.studentHandler.ImportStudents)
			students.PUT("/:id", RequireRoles(perms.Roles(config.ActionStudentWrite)...), hm.studentHandler.UpdateStudent)
			students.DELETE("/:id", RequireRoles(perms.Roles(config.ActionStudentDelete)...), hm.studentHandler.DeleteStudent)
		}

		// Course routes
		courses := authed.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.POST("", RequireRoles(perms.Roles(config.ActionCourseWrite)...), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", RequireRoles(perms.Roles(config.ActionCourseWrite)...), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", RequireRoles(perms.Roles(config.ActionCourseDelete)...), hm.courseHandler.DeleteCourse)
		}

		// Grade routes
		grades := authed.Group("/grades")
		{
			grades.GET("", hm.gradeHandler.ListGrades)
			grades.GET("/export", RequireRoles(perms.Roles(config.ActionGradeWrite)...), hm.gradeHandler.ExportGrades)
			grades.POST("", RequireRoles(perms.Roles(config.ActionGradeWrite)...), hm.gradeHandler.CreateGrade)
			grades.PUT("/:id", RequireRoles(perms.Roles(config.ActionGradeWrite)...), hm.gradeHandler.UpdateGrade)
			grades.DELETE("/:id", RequireRoles(perms.Roles(config.ActionGradeDelete)...), hm.gradeHandler.DeleteGrade)
		}

		// Statistics
		authed.GET("/stats", hm.statsHandler.GetStats)
	}
}
