package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/events"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

// MockRepository for testing - minimal implementation
type MockNotificationRepository struct{}

func (m *MockNotificationRepository) Booking() repositories.BookingRepository       { return nil }
func (m *MockNotificationRepository) Course() repositories.CourseRepository         { return nil }
func (m *MockNotificationRepository) Enrollment() repositories.EnrollmentRepository { return nil }
func (m *MockNotificationRepository) Service() repositories.ServiceRepository       { return nil }
func (m *MockNotificationRepository) Category() repositories.CategoryRepository     { return nil }
func (m *MockNotificationRepository) Consultant() repositories.ConsultantRepository {
	return nil
}
func (m *MockNotificationRepository) Partner() repositories.PartnerRepository     { return nil }
func (m *MockNotificationRepository) User() repositories.UserRepository           { return nil }
func (m *MockNotificationRepository) Dashboard() repositories.DashboardRepository { return nil }
func (m *MockNotificationRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return nil
}
func (m *MockNotificationRepository) Ping(ctx context.Context) error { return nil }
func (m *MockNotificationRepository) Close() error                   { return nil }

func newTestNotificationService(publisher events.EventPublisher) *notificationEventService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return &notificationEventService{
		repo:           &MockNotificationRepository{},
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator.New(),
	}
}

func TestNotificationEventService_PublishEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockPublisher := events.NewMockEventPublisher(logger)
	service := newTestNotificationService(mockPublisher)

	ctx := context.Background()

	t.Run("NotifyBookingCreated", func(t *testing.T) {
		mockPublisher.ClearEvents()

		booking := &models.Booking{
			ID:            42,
			Kind:          models.KindConsultation,
			ClientID:      "client-1",
			ConsultantID:  7,
			ServiceID:     3,
			Status:        models.BookingScheduled,
			ScheduledDate: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
			TimeSlot:      "10:00",
		}

		if err := service.NotifyBookingCreated(ctx, booking); err != nil {
			t.Fatalf("Failed to publish booking created: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		event := published[0]
		if event.Type != events.EventBookingCreated {
			t.Errorf("Expected event type %q, got %q", events.EventBookingCreated, event.Type)
		}
		payload, ok := event.Data.(events.BookingEvent)
		if !ok {
			t.Fatalf("Expected BookingEvent payload, got %T", event.Data)
		}
		if payload.BookingID != 42 || payload.ConsultantID != 7 {
			t.Errorf("Unexpected payload: %+v", payload)
		}
	})

	t.Run("NotifyBookingStatusChanged_CarriesPrevStatus", func(t *testing.T) {
		mockPublisher.ClearEvents()

		booking := &models.Booking{
			ID:       42,
			ClientID: "client-1",
			Status:   models.BookingConfirmed,
		}
		if err := service.NotifyBookingStatusChanged(ctx, booking, models.BookingScheduled, "consultant-user"); err != nil {
			t.Fatalf("Failed to publish status change: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		payload := published[0].Data.(events.BookingEvent)
		if payload.PrevStatus != string(models.BookingScheduled) {
			t.Errorf("Expected prev status scheduled, got %q", payload.PrevStatus)
		}
		if payload.ActorID != "consultant-user" {
			t.Errorf("Expected actor id to be carried, got %q", payload.ActorID)
		}
	})

	t.Run("NotifyEnrollmentCompleted_IncludesCertificate", func(t *testing.T) {
		mockPublisher.ClearEvents()

		certID := "CERT-9-1757844000"
		enrollment := &models.Enrollment{
			ID:              9,
			StudentID:       "student-1",
			CourseID:        4,
			Status:          models.EnrollmentCompleted,
			ProgressOverall: 100,
			CertificateID:   &certID,
		}
		if err := service.NotifyEnrollmentCompleted(ctx, enrollment); err != nil {
			t.Fatalf("Failed to publish enrollment completed: %v", err)
		}

		payload := mockPublisher.GetPublishedEvents()[0].Data.(events.EnrollmentEvent)
		if payload.CertificateID != certID {
			t.Errorf("Expected certificate %q, got %q", certID, payload.CertificateID)
		}
	})

	t.Run("SendBulkNotification", func(t *testing.T) {
		mockPublisher.ClearEvents()

		notification := &NotificationRequest{
			Type:    "course.announcement",
			Title:   "New cohort open",
			Message: "Enrollment for the October cohort is now open",
		}
		if err := service.SendBulkNotification(ctx, []string{"u1", "u2", "u3"}, notification); err != nil {
			t.Fatalf("Failed to send bulk notification: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		if published[0].Type != events.EventSystemBulkNotify {
			t.Errorf("Expected event type %q, got %q", events.EventSystemBulkNotify, published[0].Type)
		}
		payload := published[0].Data.(events.BulkNotificationEvent)
		if len(payload.UserIDs) != 3 {
			t.Errorf("Expected 3 user ids, got %d", len(payload.UserIDs))
		}
		if payload.Priority != "normal" {
			t.Errorf("Expected default priority normal, got %q", payload.Priority)
		}
	})

	t.Run("SendBulkNotification_EmptyUsers", func(t *testing.T) {
		mockPublisher.ClearEvents()

		notification := &NotificationRequest{
			Type:    "course.announcement",
			Title:   "Title",
			Message: "Message",
		}
		if err := service.SendBulkNotification(ctx, nil, notification); err == nil {
			t.Fatal("Expected error for empty user list")
		}
		if len(mockPublisher.GetPublishedEvents()) != 0 {
			t.Error("Nothing should be published on validation failure")
		}
	})

	t.Run("Event_Structure_Validation", func(t *testing.T) {
		mockPublisher.ClearEvents()

		booking := &models.Booking{ID: 1, ClientID: "client-1", Status: models.BookingScheduled}
		if err := service.NotifyBookingCreated(ctx, booking); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}

		event := mockPublisher.GetPublishedEvents()[0]
		if event.ID == "" {
			t.Error("Event ID should not be empty")
		}
		if event.Source != "marketplace-service" {
			t.Errorf("Expected source 'marketplace-service', got '%s'", event.Source)
		}
		if event.Version != "1.0" {
			t.Errorf("Expected version '1.0', got '%s'", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("Event timestamp should be set")
		}
	})
}
