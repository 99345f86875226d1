package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skillbridge/marketplace-service/internal/events"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

const notificationTopic = "marketplace-events"

// notificationEventService turns domain changes into events on the broker.
// Publishing failures are returned to callers, who treat them as best-effort.
type notificationEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewNotificationEventService(repo repositories.Repository, eventPublisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) NotificationEventService {
	return &notificationEventService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *notificationEventService) NotifyBookingCreated(ctx context.Context, booking *models.Booking) error {
	event := events.NewEvent(events.EventBookingCreated, events.BookingEvent{
		BookingID:     booking.ID,
		Kind:          string(booking.Kind),
		ClientID:      booking.ClientID,
		ConsultantID:  booking.ConsultantID,
		ServiceID:     booking.ServiceID,
		Status:        string(booking.Status),
		ScheduledDate: booking.ScheduledDate,
		TimeSlot:      booking.TimeSlot,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyBookingStatusChanged(ctx context.Context, booking *models.Booking, prevStatus models.BookingStatus, actorID string) error {
	event := events.NewEvent(events.EventBookingStatusChanged, events.BookingEvent{
		BookingID:     booking.ID,
		Kind:          string(booking.Kind),
		ClientID:      booking.ClientID,
		ConsultantID:  booking.ConsultantID,
		ServiceID:     booking.ServiceID,
		Status:        string(booking.Status),
		PrevStatus:    string(prevStatus),
		ScheduledDate: booking.ScheduledDate,
		TimeSlot:      booking.TimeSlot,
		ActorID:       actorID,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyBookingRescheduled(ctx context.Context, booking *models.Booking, actorID, reason string) error {
	event := events.NewEvent(events.EventBookingRescheduled, events.BookingEvent{
		BookingID:     booking.ID,
		Kind:          string(booking.Kind),
		ClientID:      booking.ClientID,
		ConsultantID:  booking.ConsultantID,
		ServiceID:     booking.ServiceID,
		Status:        string(booking.Status),
		ScheduledDate: booking.ScheduledDate,
		TimeSlot:      booking.TimeSlot,
		ActorID:       actorID,
		Reason:        reason,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyEnrollmentCreated(ctx context.Context, enrollment *models.Enrollment) error {
	event := events.NewEvent(events.EventEnrollmentCreated, events.EnrollmentEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		Status:       string(enrollment.Status),
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyEnrollmentCompleted(ctx context.Context, enrollment *models.Enrollment) error {
	payload := events.EnrollmentEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		Status:       string(enrollment.Status),
		Progress:     enrollment.ProgressOverall,
	}
	if enrollment.CertificateID != nil {
		payload.CertificateID = *enrollment.CertificateID
	}
	return s.publish(ctx, events.NewEvent(events.EventEnrollmentCompleted, payload))
}

func (s *notificationEventService) NotifyCoursePublished(ctx context.Context, course *models.Course) error {
	event := events.NewEvent(events.EventCoursePublished, map[string]interface{}{
		"course_id":     course.ID,
		"instructor_id": course.InstructorID,
		"title":         course.Title,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyConsultantApproved(ctx context.Context, consultant *models.Consultant) error {
	event := events.NewEvent(events.EventConsultantApproved, map[string]interface{}{
		"consultant_id": consultant.ID,
		"user_id":       consultant.UserID,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) SendBulkNotification(ctx context.Context, userIDs []string, notification *NotificationRequest) error {
	if err := s.validator.Validate(notification); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return ValidationErrors{{Field: "user_ids", Message: "must not be empty"}}
	}

	priority := notification.Priority
	if priority == "" {
		priority = "normal"
	}

	event := events.NewEvent(events.EventSystemBulkNotify, events.BulkNotificationEvent{
		UserIDs:  userIDs,
		Type:     notification.Type,
		Title:    notification.Title,
		Message:  notification.Message,
		Priority: priority,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) publish(ctx context.Context, event *events.Event) error {
	if err := s.eventPublisher.Publish(ctx, notificationTopic, event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	s.logger.Debug("Event published", "type", event.Type, "event_id", event.ID)
	return nil
}
