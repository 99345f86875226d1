package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// bookingActor captures the caller's relation to a booking for permission
// decisions.
type bookingActor struct {
	userID       string
	isClient     bool
	isConsultant bool
	isAdmin      bool
}

func (a bookingActor) isParticipant() bool {
	return a.isClient || a.isConsultant
}

func (s *bookingService) resolveActor(ctx context.Context, booking *models.Booking, userID string) (bookingActor, error) {
	actor := bookingActor{
		userID:   userID,
		isClient: booking.ClientID == userID,
	}

	consultantUserID := booking.Consultant.UserID
	if consultantUserID == "" {
		consultant, err := s.repo.Consultant().GetByID(ctx, s.db, booking.ConsultantID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return actor, fmt.Errorf("failed to resolve consultant: %w", err)
		}
		if consultant != nil {
			consultantUserID = consultant.UserID
		}
	}
	actor.isConsultant = consultantUserID != "" && consultantUserID == userID

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return actor, fmt.Errorf("failed to check admin role: %w", err)
	}
	actor.isAdmin = isAdmin

	return actor, nil
}

// transitionAllowedFor enforces who may trigger a transition the state machine
// already accepted. Confirmation, completion and no-show calls belong to the
// consultant; cancellation is open to both sides.
func transitionAllowedFor(actor bookingActor, from, to models.BookingStatus) bool {
	if actor.isAdmin {
		return true
	}
	switch to {
	case models.BookingConfirmed, models.BookingCompleted, models.BookingNoShow:
		return actor.isConsultant
	case models.BookingCancelled:
		return actor.isClient || actor.isConsultant
	}
	return false
}

// ===== RESPONSE BUILDERS =====

func (s *bookingService) buildBookingResponse(booking *models.Booking, actor bookingActor) *BookingResponse {
	nonTerminal := !booking.Status.IsTerminal()
	return &BookingResponse{
		Booking:       booking,
		CanReschedule: nonTerminal && (actor.isClient || actor.isAdmin),
		CanCancel:     nonTerminal && (actor.isClient || actor.isConsultant || actor.isAdmin),
		CanFeedback:   actor.isClient && booking.Status == models.BookingCompleted && !booking.FeedbackProvided(),
	}
}

func (s *bookingService) buildBookingListResponse(ctx context.Context, bookings []*models.Booking, total int64, filters repositories.BookingFilters, userID string) *BookingListResponse {
	responses := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		actor := bookingActor{
			userID:       userID,
			isClient:     b.ClientID == userID,
			isConsultant: b.Consultant.UserID != "" && b.Consultant.UserID == userID,
		}
		responses = append(responses, s.buildBookingResponse(b, actor))
	}

	limit := filters.Limit
	if limit < 1 {
		limit = len(bookings)
		if limit < 1 {
			limit = 1
		}
	}
	page := filters.Offset/limit + 1

	return &BookingListResponse{
		Bookings:   responses,
		Pagination: models.NewPagination(total, page, limit),
	}
}

// ===== SCHEDULING HELPERS =====

// slotStart combines a calendar day with an "HH:MM" label.
func slotStart(date time.Time, slot string) (time.Time, error) {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// slotBlocked reports whether [start, end) intersects any of the bookings.
func slotBlocked(bookings []*models.Booking, start, end time.Time) bool {
	for _, b := range bookings {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// conflictFromRace re-queries the calendar after a unique violation so the
// returned error can name the booking that won the race.
func (s *bookingService) conflictFromRace(ctx context.Context, consultantID uint, start, end time.Time) error {
	var conflictingID uint
	conflicts, err := s.repo.Booking().FindConflicts(ctx, s.db, consultantID, start, end, nil)
	if err == nil && len(conflicts) > 0 {
		conflictingID = conflicts[0].ID
	}
	return NewSchedulingConflictError(consultantID, conflictingID, start, end)
}

func appendRescheduleEntry(booking *models.Booking, entry models.RescheduleEntry) error {
	var history []models.RescheduleEntry
	if len(booking.RescheduleHistory) > 0 {
		if err := json.Unmarshal(booking.RescheduleHistory, &history); err != nil {
			return fmt.Errorf("malformed reschedule history: %w", err)
		}
	}
	history = append(history, entry)
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	booking.RescheduleHistory = datatypes.JSON(raw)
	return nil
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// ===== TRANSACTION HELPERS =====

// withTx executes a function within a transaction. The repository rebinds its
// sub-repositories to the transaction, so callers pass a nil tx through.
func (s *bookingService) withTx(ctx context.Context, fn func(txRepo repositories.Repository, tx *gorm.DB) error) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return fn(txRepo, nil)
	})
}
