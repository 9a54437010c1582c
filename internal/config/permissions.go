package config

import (
	"os"
	"strings"

	"github.com/SAP-F-2025/student-records-service/internal/models"
)

// Action identifies a write operation gated by role.
type Action string

const (
	ActionStudentWrite  Action = "student_write"
	ActionStudentDelete Action = "student_delete"
	ActionCourseWrite   Action = "course_write"
	ActionCourseDelete  Action = "course_delete"
	ActionGradeWrite    Action = "grade_write"
	ActionGradeDelete   Action = "grade_delete"
	ActionUserManage    Action = "user_manage"
)

// Permissions is the route permission table. The two legacy deployments
// disagreed on whether scolarite may write courses, so the table is
// configuration rather than code; reads remain open to any authenticated
// user and are not listed here.
type Permissions struct {
	table map[Action][]models.UserRole
}

func defaultPermissions() map[Action][]models.UserRole {
	return map[Action][]models.UserRole{
		ActionStudentWrite:  {models.RoleAdmin, models.RoleScolarite},
		ActionStudentDelete: {models.RoleAdmin},
		ActionCourseWrite:   {models.RoleAdmin, models.RoleScolarite},
		ActionCourseDelete:  {models.RoleAdmin},
		ActionGradeWrite:    {models.RoleAdmin, models.RoleScolarite},
		ActionGradeDelete:   {models.RoleAdmin, models.RoleScolarite},
		ActionUserManage:    {models.RoleAdmin},
	}
}

// LoadPermissions builds the table from defaults with per-action env
// overrides, e.g. ROLES_COURSE_WRITE="admin".
func LoadPermissions() Permissions {
	table := defaultPermissions()
	for action := range table {
		envKey := "ROLES_" + strings.ToUpper(string(action))
		raw := os.Getenv(envKey)
		if raw == "" {
			continue
		}
		var roles []models.UserRole
		for _, part := range strings.Split(raw, ",") {
			role, err := models.ParseRole(part)
			if err != nil {
				// Unrecognized roles in the override are dropped rather
				// than silently widening access.
				continue
			}
			roles = append(roles, role)
		}
		if len(roles) > 0 {
			table[action] = roles
		}
	}
	return Permissions{table: table}
}

// Allowed reports whether the role may perform the action.
func (p Permissions) Allowed(action Action, role models.UserRole) bool {
	for _, r := range p.table[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Roles returns the required role set for an action.
func (p Permissions) Roles(action Action) []models.UserRole {
	return p.table[action]
}
