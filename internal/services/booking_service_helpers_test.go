package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
)

func TestSlotStart(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		slot     string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{name: "morning slot", slot: "09:00", wantHour: 9, wantMin: 0},
		{name: "afternoon slot", slot: "14:30", wantHour: 14, wantMin: 30},
		{name: "last slot", slot: "23:45", wantHour: 23, wantMin: 45},
		{name: "malformed", slot: "9am", wantErr: true},
		{name: "empty", slot: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := slotStart(day, tt.slot)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for slot %q", tt.slot)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Hour() != tt.wantHour || got.Minute() != tt.wantMin {
				t.Errorf("Expected %02d:%02d, got %02d:%02d", tt.wantHour, tt.wantMin, got.Hour(), got.Minute())
			}
			if got.Year() != day.Year() || got.Month() != day.Month() || got.Day() != day.Day() {
				t.Errorf("Slot should keep the calendar day, got %v", got)
			}
		})
	}
}

func TestSlotBlocked(t *testing.T) {
	base := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		ScheduledDate: base,
		EndTime:       base.Add(60 * time.Minute),
	}
	bookings := []*models.Booking{booking}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{name: "full overlap", start: base, end: base.Add(60 * time.Minute), want: true},
		{name: "partial overlap front", start: base.Add(-30 * time.Minute), end: base.Add(30 * time.Minute), want: true},
		{name: "partial overlap back", start: base.Add(30 * time.Minute), end: base.Add(90 * time.Minute), want: true},
		{name: "contained", start: base.Add(15 * time.Minute), end: base.Add(45 * time.Minute), want: true},
		{name: "touching end does not block", start: base.Add(60 * time.Minute), end: base.Add(120 * time.Minute), want: false},
		{name: "touching start does not block", start: base.Add(-60 * time.Minute), end: base, want: false},
		{name: "disjoint", start: base.Add(3 * time.Hour), end: base.Add(4 * time.Hour), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slotBlocked(bookings, tt.start, tt.end); got != tt.want {
				t.Errorf("slotBlocked(%s-%s) = %v, want %v", tt.start.Format("15:04"), tt.end.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestTransitionAllowedFor(t *testing.T) {
	client := bookingActor{userID: "c", isClient: true}
	consultant := bookingActor{userID: "x", isConsultant: true}
	admin := bookingActor{userID: "a", isAdmin: true}
	stranger := bookingActor{userID: "s"}

	tests := []struct {
		name  string
		actor bookingActor
		to    models.BookingStatus
		want  bool
	}{
		{name: "consultant confirms", actor: consultant, to: models.BookingConfirmed, want: true},
		{name: "client cannot confirm", actor: client, to: models.BookingConfirmed, want: false},
		{name: "client cancels", actor: client, to: models.BookingCancelled, want: true},
		{name: "consultant cancels", actor: consultant, to: models.BookingCancelled, want: true},
		{name: "stranger cannot cancel", actor: stranger, to: models.BookingCancelled, want: false},
		{name: "consultant completes", actor: consultant, to: models.BookingCompleted, want: true},
		{name: "client cannot complete", actor: client, to: models.BookingCompleted, want: false},
		{name: "consultant marks no-show", actor: consultant, to: models.BookingNoShow, want: true},
		{name: "client cannot mark no-show", actor: client, to: models.BookingNoShow, want: false},
		{name: "admin can do anything", actor: admin, to: models.BookingNoShow, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transitionAllowedFor(tt.actor, models.BookingScheduled, tt.to); got != tt.want {
				t.Errorf("transitionAllowedFor(-> %s) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestAppendRescheduleEntry(t *testing.T) {
	booking := &models.Booking{}
	first := models.RescheduleEntry{
		PreviousDate: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		NewDate:      time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		Reason:       "client request",
		ActorID:      "client-1",
		At:           time.Now().UTC(),
	}

	if err := appendRescheduleEntry(booking, first); err != nil {
		t.Fatalf("Failed to append first entry: %v", err)
	}

	second := first
	second.PreviousDate = first.NewDate
	second.NewDate = first.NewDate.AddDate(0, 0, 1)
	second.Reason = "No reason provided"

	if err := appendRescheduleEntry(booking, second); err != nil {
		t.Fatalf("Failed to append second entry: %v", err)
	}

	var history []models.RescheduleEntry
	if err := json.Unmarshal(booking.RescheduleHistory, &history); err != nil {
		t.Fatalf("History is not valid JSON: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history))
	}
	if history[0].Reason != "client request" {
		t.Errorf("First entry reason lost: %q", history[0].Reason)
	}
	if history[1].Reason != "No reason provided" {
		t.Errorf("Second entry reason lost: %q", history[1].Reason)
	}

	// Malformed stored history must be rejected, not silently replaced.
	booking.RescheduleHistory = []byte("{not json")
	if err := appendRescheduleEntry(booking, first); err == nil {
		t.Error("Expected error for malformed history")
	}
}

func TestBuildBookingListResponse_Pagination(t *testing.T) {
	s := &bookingService{}

	bookings := make([]*models.Booking, 20)
	for i := range bookings {
		bookings[i] = &models.Booking{ID: uint(i + 1), ClientID: "client-1"}
	}

	filters := repositories.BookingFilters{Limit: 20, Offset: 20}
	resp := s.buildBookingListResponse(context.Background(), bookings, 45, filters, "client-1")

	if resp.Pagination.CurrentPage != 2 {
		t.Errorf("Expected page 2, got %d", resp.Pagination.CurrentPage)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", resp.Pagination.TotalPages)
	}
	if !resp.Pagination.HasNext || !resp.Pagination.HasPrev {
		t.Errorf("Expected both has_next and has_prev on the middle page: %+v", resp.Pagination)
	}
	if len(resp.Bookings) != 20 {
		t.Errorf("Expected 20 bookings, got %d", len(resp.Bookings))
	}
}
