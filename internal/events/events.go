package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published by the marketplace service
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingRescheduled   = "booking.rescheduled"
	EventBookingFeedback      = "booking.feedback_submitted"

	EventEnrollmentCreated   = "enrollment.created"
	EventEnrollmentCompleted = "enrollment.completed"
	EventEnrollmentReviewed  = "enrollment.reviewed"

	EventCoursePublished    = "course.published"
	EventConsultantApproved = "consultant.approved"
	EventSystemBulkNotify   = "system.bulk_notification"
	EventCertificateIssued  = "enrollment.certificate_issued"
)

// Event is the envelope for every message published to the event bus
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh ID and timestamp
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "marketplace-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher abstracts the message broker
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// BookingEvent is the payload for booking lifecycle events
type BookingEvent struct {
	BookingID     uint      `json:"booking_id"`
	Kind          string    `json:"kind"`
	ClientID      string    `json:"client_id"`
	ConsultantID  uint      `json:"consultant_id"`
	ServiceID     uint      `json:"service_id"`
	Status        string    `json:"status"`
	PrevStatus    string    `json:"prev_status,omitempty"`
	ScheduledDate time.Time `json:"scheduled_date"`
	TimeSlot      string    `json:"time_slot"`
	ActorID       string    `json:"actor_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// EnrollmentEvent is the payload for enrollment lifecycle events
type EnrollmentEvent struct {
	EnrollmentID  uint    `json:"enrollment_id"`
	StudentID     string  `json:"student_id"`
	CourseID      uint    `json:"course_id"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress,omitempty"`
	CertificateID string  `json:"certificate_id,omitempty"`
}

// BulkNotificationEvent fans one message out to many users
type BulkNotificationEvent struct {
	UserIDs  []string `json:"user_ids"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
}
