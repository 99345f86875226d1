package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

type bookingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	rating    RatingService
}

func NewBookingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService, rating RatingService) BookingService {
	return &bookingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		rating:    rating,
	}
}

// ===== CORE OPERATIONS =====

func (s *bookingService) Create(ctx context.Context, req *CreateBookingRequest, clientID string) (*BookingResponse, error) {
	s.logger.Info("Creating booking", "client_id", clientID, "service_id", req.ServiceID, "consultant_id", req.ConsultantID)

	if errs := s.validator.GetBusinessValidator().ValidateBookingCreate(req); len(errs) > 0 {
		return nil, errs
	}

	// Load and gate the targets before touching the calendar
	service, err := s.repo.Service().GetByID(ctx, s.db, req.ServiceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if !service.IsActive {
		return nil, ErrServiceNotBookable
	}

	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, req.ConsultantID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}
	if !consultant.Bookable() {
		return nil, ErrConsultantNotBookable
	}
	if service.ConsultantID != consultant.ID {
		return nil, ErrServiceConsultantMismatch
	}

	start := req.ScheduledDate
	end := start.Add(time.Duration(req.Duration) * time.Minute)

	availability, err := s.CheckAvailability(ctx, consultant.ID, start, req.Duration, nil)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, NewSchedulingConflictError(consultant.ID, derefID(availability.ConflictingID), start, end)
	}

	kind := req.Kind
	if kind == "" {
		kind = models.KindConsultation
	}

	booking := &models.Booking{
		Kind:                kind,
		ClientID:            clientID,
		ConsultantID:        consultant.ID,
		ServiceID:           service.ID,
		ScheduledDate:       start,
		Duration:            req.Duration,
		TimeSlot:            req.TimeSlot,
		EndTime:             end,
		Status:              models.BookingScheduled,
		Amount:              service.Price, // price snapshot, later catalog edits must not change it
		Notes:               req.Notes,
		SpecialRequirements: req.SpecialRequirements,
	}

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		if err := txRepo.Booking().Create(ctx, tx, booking); err != nil {
			if repositories.IsDuplicateError(err) {
				// Partial unique index caught a concurrent insert the
				// pre-check missed.
				return s.conflictFromRace(ctx, consultant.ID, start, end)
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}
		if err := txRepo.Service().IncrementBookingCount(ctx, tx, service.ID, 1); err != nil {
			return fmt.Errorf("failed to increment service booking count: %w", err)
		}
		if err := txRepo.Consultant().IncrementBookingCount(ctx, tx, consultant.ID, 1); err != nil {
			return fmt.Errorf("failed to increment consultant booking count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created", "booking_id", booking.ID, "kind", booking.Kind)

	if err := s.notifier.NotifyBookingCreated(ctx, booking); err != nil {
		s.logger.Error("Failed to publish booking created event", "booking_id", booking.ID, "error", err)
	}

	return s.GetByID(ctx, booking.ID, clientID)
}

func (s *bookingService) GetByID(ctx context.Context, id uint, userID string) (*BookingResponse, error) {
	booking, err := s.repo.Booking().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	actor, err := s.resolveActor(ctx, booking, userID)
	if err != nil {
		return nil, err
	}
	if !actor.isParticipant() && !actor.isAdmin {
		return nil, NewPermissionError(userID, id, "booking", "read", "not a participant")
	}

	return s.buildBookingResponse(booking, actor), nil
}

func (s *bookingService) List(ctx context.Context, filters repositories.BookingFilters, userID string) (*BookingListResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		// Non-admins only see their own side of the calendar.
		consultant, err := s.repo.Consultant().GetByUserID(ctx, s.db, userID)
		if err == nil {
			filters.ConsultantID = &consultant.ID
		} else if repositories.IsNotFoundError(err) {
			filters.ClientID = &userID
		} else {
			return nil, fmt.Errorf("failed to resolve consultant profile: %w", err)
		}
	}

	bookings, total, err := s.repo.Booking().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return s.buildBookingListResponse(ctx, bookings, total, filters, userID), nil
}

func (s *bookingService) GetByClient(ctx context.Context, clientID string, filters repositories.BookingFilters, userID string) (*BookingListResponse, error) {
	if clientID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, 0, "booking", "list", "not the client or admin")
		}
	}

	bookings, total, err := s.repo.Booking().GetByClient(ctx, s.db, clientID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get client bookings: %w", err)
	}
	return s.buildBookingListResponse(ctx, bookings, total, filters, clientID), nil
}

func (s *bookingService) GetByConsultant(ctx context.Context, consultantID uint, filters repositories.BookingFilters, userID string) (*BookingListResponse, error) {
	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, consultantID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	if consultant.UserID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, consultantID, "booking", "list", "not the consultant or admin")
		}
	}

	bookings, total, err := s.repo.Booking().GetByConsultant(ctx, s.db, consultantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get consultant bookings: %w", err)
	}
	return s.buildBookingListResponse(ctx, bookings, total, filters, userID), nil
}

// ===== SCHEDULING =====

// CheckAvailability is a pure read: it never blocks the slot, callers racing
// each other are caught by the unique index at insert time.
func (s *bookingService) CheckAvailability(ctx context.Context, consultantID uint, start time.Time, duration int, excludeID *uint) (*AvailabilityResult, error) {
	if !start.After(time.Now()) {
		return nil, validator.ValidationErrors{{
			Field:   "scheduled_date",
			Message: "must be in the future",
			Value:   start,
		}}
	}

	end := start.Add(time.Duration(duration) * time.Minute)

	conflicts, err := s.repo.Booking().FindConflicts(ctx, s.db, consultantID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}

	result := &AvailabilityResult{
		Available: len(conflicts) == 0,
		Start:     start,
		End:       end,
	}
	if len(conflicts) > 0 {
		result.ConflictingID = &conflicts[0].ID
	}
	return result, nil
}

func (s *bookingService) GetAvailableSlots(ctx context.Context, consultantID, serviceID uint, date time.Time) (*AvailableSlotsResponse, error) {
	service, err := s.repo.Service().GetByID(ctx, s.db, serviceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if service.ConsultantID != consultantID {
		return nil, ErrServiceConsultantMismatch
	}

	weekday := strings.ToLower(date.Weekday().String())
	offered := service.SlotsForWeekday(weekday)

	response := &AvailableSlotsResponse{
		ConsultantID: consultantID,
		ServiceID:    serviceID,
		Date:         date.Format("2006-01-02"),
		Slots:        []string{},
	}
	if len(offered) == 0 {
		return response, nil
	}

	active, err := s.repo.Booking().GetActiveForDay(ctx, s.db, consultantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for day: %w", err)
	}

	for _, slot := range offered {
		start, err := slotStart(date, slot)
		if err != nil {
			s.logger.Warn("Skipping malformed availability slot", "service_id", serviceID, "slot", slot)
			continue
		}
		end := start.Add(time.Duration(service.Duration) * time.Minute)
		if !slotBlocked(active, start, end) {
			response.Slots = append(response.Slots, slot)
		}
	}
	return response, nil
}

func (s *bookingService) Reschedule(ctx context.Context, id uint, req *RescheduleBookingRequest, actorID string) (*BookingResponse, error) {
	s.logger.Info("Rescheduling booking", "booking_id", id, "actor_id", actorID)

	booking, err := s.repo.Booking().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	actor, err := s.resolveActor(ctx, booking, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.isClient && !actor.isAdmin {
		return nil, NewPermissionError(actorID, id, "booking", "reschedule", "only the client or an admin may reschedule")
	}

	if errs := s.validator.GetBusinessValidator().ValidateBookingReschedule(req, booking); len(errs) > 0 {
		return nil, errs
	}

	newStart := req.ScheduledDate
	newEnd := newStart.Add(time.Duration(booking.Duration) * time.Minute)

	availability, err := s.CheckAvailability(ctx, booking.ConsultantID, newStart, booking.Duration, &booking.ID)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, NewSchedulingConflictError(booking.ConsultantID, derefID(availability.ConflictingID), newStart, newEnd)
	}

	reason := "No reason provided"
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}

	prevDate := booking.ScheduledDate
	if err := appendRescheduleEntry(booking, models.RescheduleEntry{
		PreviousDate: prevDate,
		NewDate:      newStart,
		Reason:       reason,
		ActorID:      actorID,
		At:           time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record reschedule history: %w", err)
	}

	booking.ScheduledDate = newStart
	booking.TimeSlot = req.TimeSlot
	booking.EndTime = newEnd
	booking.Status = models.BookingRescheduled

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		if err := txRepo.Booking().Update(ctx, tx, booking); err != nil {
			if repositories.IsDuplicateError(err) {
				return s.conflictFromRace(ctx, booking.ConsultantID, newStart, newEnd)
			}
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking rescheduled", "booking_id", id, "from", prevDate, "to", newStart)

	if err := s.notifier.NotifyBookingRescheduled(ctx, booking, actorID, reason); err != nil {
		s.logger.Error("Failed to publish reschedule event", "booking_id", id, "error", err)
	}

	return s.buildBookingResponse(booking, actor), nil
}

// ===== LIFECYCLE =====

func (s *bookingService) UpdateStatus(ctx context.Context, id uint, req *UpdateBookingStatusRequest, actorID string) (*BookingResponse, error) {
	s.logger.Info("Updating booking status", "booking_id", id, "new_status", req.Status, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateBookingStatusTransition(booking.Status, req.Status); len(errs) > 0 {
		return nil, NewBusinessRuleError(
			"booking_status_transition",
			fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, req.Status),
			map[string]interface{}{"from": booking.Status, "to": req.Status},
		)
	}

	actor, err := s.resolveActor(ctx, booking, actorID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowedFor(actor, booking.Status, req.Status) {
		return nil, NewPermissionError(actorID, id, "booking", "update_status",
			fmt.Sprintf("role not allowed to trigger %s -> %s", booking.Status, req.Status))
	}

	prevStatus := booking.Status
	now := time.Now().UTC()
	booking.Status = req.Status

	switch req.Status {
	case models.BookingCancelled:
		booking.CancelledAt = &now
		booking.CancelledBy = &actorID
		booking.CancellationReason = req.CancellationReason
	case models.BookingCompleted:
		booking.CompletedAt = &now
	}

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		return txRepo.Booking().Update(ctx, tx, booking)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	s.logger.Info("Booking status updated", "booking_id", id, "from", prevStatus, "to", req.Status)

	if err := s.notifier.NotifyBookingStatusChanged(ctx, booking, prevStatus, actorID); err != nil {
		s.logger.Error("Failed to publish status change event", "booking_id", id, "error", err)
	}

	return s.buildBookingResponse(booking, actor), nil
}

func (s *bookingService) SubmitFeedback(ctx context.Context, id uint, req *BookingFeedbackRequest, actorID string) error {
	s.logger.Info("Submitting booking feedback", "booking_id", id, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	booking, err := s.repo.Booking().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ClientID != actorID {
		return NewPermissionError(actorID, id, "booking", "feedback", "only the client may leave feedback")
	}
	if booking.Status != models.BookingCompleted {
		return ErrBookingNotCompleted
	}
	if booking.FeedbackProvided() {
		return ErrFeedbackAlreadyGiven
	}

	now := time.Now().UTC()
	booking.Rating = &req.Rating
	booking.Feedback = req.Feedback
	booking.FeedbackAt = &now

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		return txRepo.Booking().Update(ctx, tx, booking)
	})
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	// Aggregation is best-effort: the feedback write must not fail because a
	// recompute did.
	if err := s.rating.RecomputeService(ctx, booking.ServiceID); err != nil {
		s.logger.Error("Failed to recompute service rating", "service_id", booking.ServiceID, "error", err)
	}
	if err := s.rating.RecomputeConsultant(ctx, booking.ConsultantID); err != nil {
		s.logger.Error("Failed to recompute consultant rating", "consultant_id", booking.ConsultantID, "error", err)
	}

	return nil
}

// ===== STATISTICS =====

func (s *bookingService) GetConsultantStats(ctx context.Context, consultantID uint, userID string) (*repositories.ConsultantStats, error) {
	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, consultantID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	if consultant.UserID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, consultantID, "consultant", "stats", "not the consultant or admin")
		}
	}

	return s.repo.Booking().GetConsultantStats(ctx, s.db, consultantID)
}
