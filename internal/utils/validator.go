package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/student-records-service/internal/errors"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the custom
// role/provider rules registered once.
type Validator struct {
	structValidator *validator.Validate
}

// NewValidator creates a validator with all custom rules registered
func NewValidator() *Validator {
	v := validator.New()
	RegisterCustomValidators(v)
	return &Validator{structValidator: v}
}

// ValidateStruct validates struct tags and returns the raw validator error
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleAdmin,
		models.RoleScolarite,
		models.RoleStudent,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateAuthProvider(fl validator.FieldLevel) bool {
	validProviders := []models.AuthProvider{
		models.ProviderLocal,
		models.ProviderGoogle,
		models.ProviderGithub,
		models.ProviderOAuth2,
	}

	value := fl.Field().String()
	for _, validProvider := range validProviders {
		if string(validProvider) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("auth_provider", ValidateAuthProvider)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
