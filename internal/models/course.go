package models

import "time"

// Course code carries no uniqueness constraint; duplicate codes are
// tolerated the way the legacy schema tolerated them.
type Course struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Code string `json:"code" gorm:"not null;size:50;index" validate:"required,min=1,max=50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}
