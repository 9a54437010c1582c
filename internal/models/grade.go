package models

import "time"

// Grade references exactly one Student and one Course. References are
// checked on write but not transactionally; deleting a Student or Course
// does not retract dependent grades.
type Grade struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StudentID uint      `json:"student_id" gorm:"not null;index" validate:"required"`
	CourseID  uint      `json:"course_id" gorm:"not null;index" validate:"required"`
	Grade     float64   `json:"grade" gorm:"not null" validate:"min=0,max=100"`
	Date      time.Time `json:"date"`

	Student Student `json:"student" gorm:"foreignKey:StudentID"`
	Course  Course  `json:"course" gorm:"foreignKey:CourseID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Grade) TableName() string {
	return "grades"
}
