package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/events"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

func newTestBookingService(repo *MockRepository) (BookingService, *MockRatingService) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	rating := &MockRatingService{}
	notifier := newTestNotificationService(events.NewMockEventPublisher(logger))
	return NewBookingService(repo, nil, logger, validator.New(), notifier, rating), rating
}

// seedBookableTarget registers an active service offered by an approved
// consultant, the minimum a booking can be created against.
func seedBookableTarget(repo *MockRepository) {
	repo.service.services[1] = &models.Service{
		ID:           1,
		ConsultantID: 1,
		Price:        150,
		Duration:     60,
		IsActive:     true,
	}
	repo.consultant.consultants[1] = &models.Consultant{
		ID:             1,
		UserID:         "consultant-user",
		IsActive:       true,
		ApprovalStatus: models.ApprovalApproved,
	}
}

func validCreateRequest() *CreateBookingRequest {
	return &CreateBookingRequest{
		ServiceID:     1,
		ConsultantID:  1,
		ScheduledDate: time.Now().Add(48 * time.Hour),
		Duration:      60,
		TimeSlot:      "10:00",
	}
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled with price snapshot and counters", func(t *testing.T) {
		repo := newMockRepository()
		seedBookableTarget(repo)
		svc, _ := newTestBookingService(repo)

		resp, err := svc.Create(ctx, validCreateRequest(), "client-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if resp.Status != models.BookingScheduled {
			t.Errorf("Expected status scheduled, got %s", resp.Status)
		}
		if resp.Amount != 150 {
			t.Errorf("Expected amount snapshot 150, got %v", resp.Amount)
		}
		if repo.service.bookingDeltas[1] != 1 {
			t.Errorf("Expected service booking count +1, got %d", repo.service.bookingDeltas[1])
		}
		if repo.consultant.bookingDeltas[1] != 1 {
			t.Errorf("Expected consultant booking count +1, got %d", repo.consultant.bookingDeltas[1])
		}
	})

	t.Run("overlapping booking rejected", func(t *testing.T) {
		repo := newMockRepository()
		seedBookableTarget(repo)
		repo.booking.conflicts = []*models.Booking{{ID: 7, ConsultantID: 1}}
		svc, _ := newTestBookingService(repo)

		_, err := svc.Create(ctx, validCreateRequest(), "client-1")

		var conflict *SchedulingConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Expected SchedulingConflictError, got %v", err)
		}
		if conflict.ConflictingID != 7 {
			t.Errorf("Expected conflicting booking 7, got %d", conflict.ConflictingID)
		}
		if len(repo.booking.bookings) != 0 {
			t.Error("Nothing should be persisted on a conflict")
		}
	})

	t.Run("unique index race maps to conflict", func(t *testing.T) {
		repo := newMockRepository()
		seedBookableTarget(repo)
		repo.booking.createErr = gorm.ErrDuplicatedKey
		svc, _ := newTestBookingService(repo)

		_, err := svc.Create(ctx, validCreateRequest(), "client-1")

		var conflict *SchedulingConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Expected SchedulingConflictError, got %v", err)
		}
		if repo.service.bookingDeltas[1] != 0 {
			t.Error("Counters should not move when the insert loses the race")
		}
	})

	t.Run("inactive service rejected", func(t *testing.T) {
		repo := newMockRepository()
		seedBookableTarget(repo)
		repo.service.services[1].IsActive = false
		svc, _ := newTestBookingService(repo)

		if _, err := svc.Create(ctx, validCreateRequest(), "client-1"); !errors.Is(err, ErrServiceNotBookable) {
			t.Errorf("Expected ErrServiceNotBookable, got %v", err)
		}
	})
}

func TestBookingService_SubmitFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("valid rating accepted and aggregates recomputed", func(t *testing.T) {
		repo := newMockRepository()
		booking := repo.booking.add(&models.Booking{
			ClientID:     "client-1",
			ConsultantID: 1,
			ServiceID:    1,
			Status:       models.BookingCompleted,
		})
		svc, rating := newTestBookingService(repo)

		if err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 5}, "client-1"); err != nil {
			t.Fatalf("SubmitFeedback failed: %v", err)
		}

		stored := repo.booking.bookings[booking.ID]
		if stored.Rating == nil || *stored.Rating != 5 {
			t.Errorf("Expected rating 5 to be stored, got %v", stored.Rating)
		}
		if stored.FeedbackAt == nil {
			t.Error("Expected feedback timestamp to be set")
		}
		if len(rating.serviceIDs) != 1 || rating.serviceIDs[0] != 1 {
			t.Errorf("Expected service rating recompute for service 1, got %v", rating.serviceIDs)
		}
		if len(rating.consultantIDs) != 1 || rating.consultantIDs[0] != 1 {
			t.Errorf("Expected consultant rating recompute for consultant 1, got %v", rating.consultantIDs)
		}
	})

	t.Run("out of range rating rejected", func(t *testing.T) {
		repo := newMockRepository()
		booking := repo.booking.add(&models.Booking{
			ClientID: "client-1",
			Status:   models.BookingCompleted,
		})
		svc, _ := newTestBookingService(repo)

		err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 6}, "client-1")

		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			t.Fatalf("Expected ValidationErrors, got %v", err)
		}
		if repo.booking.bookings[booking.ID].Rating != nil {
			t.Error("Invalid rating must not be stored")
		}
	})

	t.Run("booking not completed", func(t *testing.T) {
		repo := newMockRepository()
		booking := repo.booking.add(&models.Booking{
			ClientID: "client-1",
			Status:   models.BookingConfirmed,
		})
		svc, _ := newTestBookingService(repo)

		if err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 4}, "client-1"); !errors.Is(err, ErrBookingNotCompleted) {
			t.Errorf("Expected ErrBookingNotCompleted, got %v", err)
		}
	})

	t.Run("feedback only once", func(t *testing.T) {
		repo := newMockRepository()
		booking := repo.booking.add(&models.Booking{
			ClientID: "client-1",
			Status:   models.BookingCompleted,
		})
		svc, _ := newTestBookingService(repo)

		if err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 5}, "client-1"); err != nil {
			t.Fatalf("First feedback failed: %v", err)
		}
		if err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 1}, "client-1"); !errors.Is(err, ErrFeedbackAlreadyGiven) {
			t.Errorf("Expected ErrFeedbackAlreadyGiven, got %v", err)
		}
		if *repo.booking.bookings[booking.ID].Rating != 5 {
			t.Error("Second submission must not overwrite the stored rating")
		}
	})

	t.Run("only the client may leave feedback", func(t *testing.T) {
		repo := newMockRepository()
		booking := repo.booking.add(&models.Booking{
			ClientID: "client-1",
			Status:   models.BookingCompleted,
		})
		svc, _ := newTestBookingService(repo)

		err := svc.SubmitFeedback(ctx, booking.ID, &BookingFeedbackRequest{Rating: 5}, "someone-else")

		var perm *PermissionError
		if !errors.As(err, &perm) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
	})
}

func TestBookingService_GetByClient_Ownership(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.booking.add(&models.Booking{ClientID: "client-1", Status: models.BookingScheduled})
	repo.booking.add(&models.Booking{ClientID: "client-1", Status: models.BookingCompleted})
	repo.user.roles["admin-user"] = []models.UserRole{models.RoleAdmin}
	svc, _ := newTestBookingService(repo)

	filters := repositories.BookingFilters{Limit: 10}

	t.Run("client sees own bookings", func(t *testing.T) {
		resp, err := svc.GetByClient(ctx, "client-1", filters, "client-1")
		if err != nil {
			t.Fatalf("GetByClient failed: %v", err)
		}
		if len(resp.Bookings) != 2 {
			t.Errorf("Expected 2 bookings, got %d", len(resp.Bookings))
		}
	})

	t.Run("admin sees any client", func(t *testing.T) {
		if _, err := svc.GetByClient(ctx, "client-1", filters, "admin-user"); err != nil {
			t.Fatalf("Admin access failed: %v", err)
		}
	})

	t.Run("other user denied", func(t *testing.T) {
		_, err := svc.GetByClient(ctx, "client-1", filters, "client-2")

		var perm *PermissionError
		if !errors.As(err, &perm) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
	})
}
