package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	// Account events
	EventUserRegistered EventType = "user.registered"

	// Student record events
	EventStudentCreated EventType = "student.created"
	EventStudentDeleted EventType = "student.deleted"

	// Grade events
	EventGradeRecorded EventType = "grade.recorded"
	EventGradeUpdated  EventType = "grade.updated"
	EventGradeDeleted  EventType = "grade.deleted"
)

// NotificationEvent is the base event structure for all notification events.
// Events are consumed by the external notification service; this service
// only publishes them.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewNotificationEvent stamps a fresh event envelope around a payload.
func NewNotificationEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "student-records-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Event payloads

type UserRegisteredEvent struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

type StudentCreatedEvent struct {
	StudentID uint    `json:"student_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
}

type StudentDeletedEvent struct {
	StudentID uint `json:"student_id"`
}

type GradeEvent struct {
	GradeID    uint      `json:"grade_id"`
	StudentID  uint      `json:"student_id"`
	CourseID   uint      `json:"course_id"`
	CourseName string    `json:"course_name,omitempty"`
	Grade      float64   `json:"grade"`
	Date       time.Time `json:"date"`
}
