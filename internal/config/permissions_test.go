package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/student-records-service/internal/models"
)

func TestDefaultPermissions(t *testing.T) {
	perms := LoadPermissions()

	assert.True(t, perms.Allowed(ActionStudentWrite, models.RoleAdmin))
	assert.True(t, perms.Allowed(ActionStudentWrite, models.RoleScolarite))
	assert.False(t, perms.Allowed(ActionStudentWrite, models.RoleStudent))

	assert.True(t, perms.Allowed(ActionStudentDelete, models.RoleAdmin))
	assert.False(t, perms.Allowed(ActionStudentDelete, models.RoleScolarite))

	assert.True(t, perms.Allowed(ActionCourseWrite, models.RoleScolarite))
	assert.False(t, perms.Allowed(ActionCourseDelete, models.RoleScolarite))

	assert.True(t, perms.Allowed(ActionGradeWrite, models.RoleScolarite))
	assert.True(t, perms.Allowed(ActionGradeDelete, models.RoleScolarite))

	assert.True(t, perms.Allowed(ActionUserManage, models.RoleAdmin))
	assert.False(t, perms.Allowed(ActionUserManage, models.RoleScolarite))
	assert.False(t, perms.Allowed(ActionUserManage, models.RoleStudent))
}

func TestPermissionsEnvOverride(t *testing.T) {
	t.Setenv("ROLES_COURSE_WRITE", "admin")

	perms := LoadPermissions()

	assert.True(t, perms.Allowed(ActionCourseWrite, models.RoleAdmin))
	assert.False(t, perms.Allowed(ActionCourseWrite, models.RoleScolarite))
}

func TestPermissionsOverrideIgnoresUnknownRoles(t *testing.T) {
	t.Setenv("ROLES_GRADE_DELETE", "superuser,weird")

	perms := LoadPermissions()

	// An override with no recognized role keeps the defaults rather than
	// widening or emptying access.
	assert.True(t, perms.Allowed(ActionGradeDelete, models.RoleAdmin))
	assert.True(t, perms.Allowed(ActionGradeDelete, models.RoleScolarite))
}

func TestPermissionsRoles(t *testing.T) {
	perms := LoadPermissions()

	roles := perms.Roles(ActionUserManage)
	assert.Equal(t, []models.UserRole{models.RoleAdmin}, roles)
}
