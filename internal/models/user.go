package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin     UserRole = "admin"
	RoleScolarite UserRole = "scolarite"
	RoleStudent   UserRole = "student"
)

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderGithub AuthProvider = "github"
	ProviderOAuth2 AuthProvider = "oauth2"
)

// ParseRole normalizes a role string to a known role. Tokens and older
// records may carry mixed case; comparison is done lowercased.
func ParseRole(s string) (UserRole, error) {
	switch UserRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleScolarite:
		return RoleScolarite, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// ParseProvider normalizes an auth provider string to a known provider.
func ParseProvider(s string) (AuthProvider, error) {
	switch AuthProvider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderLocal:
		return ProviderLocal, nil
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderGithub:
		return ProviderGithub, nil
	case ProviderOAuth2:
		return ProviderOAuth2, nil
	default:
		return "", fmt.Errorf("unknown auth provider %q", s)
	}
}

type User struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`

	// Absent for pure-OAuth accounts; a user may hold both an OAuth
	// identity and a local password (dual-auth).
	PasswordHash *string `json:"-" gorm:"size:100"`

	Role     UserRole     `json:"role" gorm:"not null;default:student;size:20;index" validate:"omitempty,user_role"`
	Provider AuthProvider `json:"provider" gorm:"not null;default:local;size:20" validate:"omitempty,auth_provider"`

	// Profile info
	AvatarURL   *string        `json:"avatar_url" gorm:"size:500"`
	Preferences datatypes.JSON `json:"preferences,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasLocalPassword reports whether local credential verification can succeed.
func (u *User) HasLocalPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
