package models

import "time"

// Student is an academic record, not a login. It may be linked to a User
// account via UserID for self-service views; unlinked students are matched
// by email where possible.
type Student struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	FirstName string  `json:"first_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email     *string `json:"email" gorm:"uniqueIndex;size:255" validate:"omitempty,email"`

	UserID *uint `json:"user_id" gorm:"index"`
	User   *User `json:"-" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}
