package validator

import (
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
)

func TestBusinessValidator_ValidateBookingCreate(t *testing.T) {
	bv := NewBusinessValidator()

	valid := func() *BookingCreateRequest {
		return &BookingCreateRequest{
			ServiceID:     1,
			ConsultantID:  2,
			ScheduledDate: time.Now().Add(48 * time.Hour),
			Duration:      60,
			TimeSlot:      "14:00",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*BookingCreateRequest)
		wantErr bool
	}{
		{name: "valid request", mutate: func(r *BookingCreateRequest) {}, wantErr: false},
		{name: "missing service", mutate: func(r *BookingCreateRequest) { r.ServiceID = 0 }, wantErr: true},
		{name: "past date", mutate: func(r *BookingCreateRequest) { r.ScheduledDate = time.Now().Add(-time.Hour) }, wantErr: true},
		{name: "duration too short", mutate: func(r *BookingCreateRequest) { r.Duration = 10 }, wantErr: true},
		{name: "duration too long", mutate: func(r *BookingCreateRequest) { r.Duration = 500 }, wantErr: true},
		{name: "bad time slot", mutate: func(r *BookingCreateRequest) { r.TimeSlot = "25:99" }, wantErr: true},
		{name: "time slot missing minutes", mutate: func(r *BookingCreateRequest) { r.TimeSlot = "14" }, wantErr: true},
		{name: "more than a year out", mutate: func(r *BookingCreateRequest) { r.ScheduledDate = time.Now().AddDate(1, 1, 0) }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			errs := bv.ValidateBookingCreate(req)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateBookingCreate() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestBusinessValidator_ValidateBookingStatusTransition(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		from    models.BookingStatus
		to      models.BookingStatus
		wantErr bool
	}{
		{name: "scheduled to confirmed", from: models.BookingScheduled, to: models.BookingConfirmed, wantErr: false},
		{name: "scheduled to cancelled", from: models.BookingScheduled, to: models.BookingCancelled, wantErr: false},
		{name: "scheduled to completed", from: models.BookingScheduled, to: models.BookingCompleted, wantErr: true},
		{name: "confirmed to completed", from: models.BookingConfirmed, to: models.BookingCompleted, wantErr: false},
		{name: "confirmed to no_show", from: models.BookingConfirmed, to: models.BookingNoShow, wantErr: false},
		{name: "rescheduled to confirmed", from: models.BookingRescheduled, to: models.BookingConfirmed, wantErr: false},
		{name: "completed is terminal", from: models.BookingCompleted, to: models.BookingCancelled, wantErr: true},
		{name: "cancelled is terminal", from: models.BookingCancelled, to: models.BookingConfirmed, wantErr: true},
		{name: "no_show is terminal", from: models.BookingNoShow, to: models.BookingConfirmed, wantErr: true},
		{name: "rescheduled not reachable via status update", from: models.BookingScheduled, to: models.BookingRescheduled, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateBookingStatusTransition(tt.from, tt.to)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateBookingStatusTransition(%s -> %s) errors = %v, wantErr %v", tt.from, tt.to, errs, tt.wantErr)
			}
		})
	}
}

func TestBusinessValidator_ValidateEnrollmentStatusTransition(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		from    models.EnrollmentStatus
		to      models.EnrollmentStatus
		wantErr bool
	}{
		{name: "active to completed", from: models.EnrollmentActive, to: models.EnrollmentCompleted, wantErr: false},
		{name: "active to paused", from: models.EnrollmentActive, to: models.EnrollmentPaused, wantErr: false},
		{name: "paused to active", from: models.EnrollmentPaused, to: models.EnrollmentActive, wantErr: false},
		{name: "paused to completed", from: models.EnrollmentPaused, to: models.EnrollmentCompleted, wantErr: true},
		{name: "completed is terminal", from: models.EnrollmentCompleted, to: models.EnrollmentActive, wantErr: true},
		{name: "expired is terminal", from: models.EnrollmentExpired, to: models.EnrollmentActive, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateEnrollmentStatusTransition(tt.from, tt.to)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateEnrollmentStatusTransition(%s -> %s) errors = %v, wantErr %v", tt.from, tt.to, errs, tt.wantErr)
			}
		})
	}
}

func TestBusinessValidator_ValidateBookingReschedule(t *testing.T) {
	bv := NewBusinessValidator()

	base := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	existing := &models.Booking{
		Status:        models.BookingScheduled,
		ScheduledDate: base,
		TimeSlot:      "10:00",
	}

	t.Run("valid reschedule", func(t *testing.T) {
		req := &BookingRescheduleRequest{ScheduledDate: base.Add(24 * time.Hour), TimeSlot: "11:00"}
		if errs := bv.ValidateBookingReschedule(req, existing); len(errs) > 0 {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("same date and slot rejected", func(t *testing.T) {
		req := &BookingRescheduleRequest{ScheduledDate: base, TimeSlot: "10:00"}
		if errs := bv.ValidateBookingReschedule(req, existing); len(errs) == 0 {
			t.Error("expected error for unchanged date and slot")
		}
	})

	t.Run("terminal booking rejected", func(t *testing.T) {
		done := &models.Booking{Status: models.BookingCompleted, ScheduledDate: base, TimeSlot: "10:00"}
		req := &BookingRescheduleRequest{ScheduledDate: base.Add(24 * time.Hour), TimeSlot: "11:00"}
		if errs := bv.ValidateBookingReschedule(req, done); len(errs) == 0 {
			t.Error("expected error for completed booking")
		}
	})
}

func TestBusinessValidator_ValidateServiceCreate(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		req     *ServiceCreateRequest
		wantErr bool
	}{
		{
			name: "valid with availability",
			req: &ServiceCreateRequest{
				Title:    "Career consultation",
				Price:    50,
				Duration: 60,
				Availability: map[string][]string{
					"monday": {"09:00", "10:00"},
					"friday": {"14:00"},
				},
			},
			wantErr: false,
		},
		{
			name: "bad weekday key",
			req: &ServiceCreateRequest{
				Title:        "Career consultation",
				Price:        50,
				Duration:     60,
				Availability: map[string][]string{"someday": {"09:00"}},
			},
			wantErr: true,
		},
		{
			name: "bad slot format",
			req: &ServiceCreateRequest{
				Title:        "Career consultation",
				Price:        50,
				Duration:     60,
				Availability: map[string][]string{"monday": {"9am"}},
			},
			wantErr: true,
		},
		{
			name:    "negative price",
			req:     &ServiceCreateRequest{Title: "X", Price: -1, Duration: 60},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateServiceCreate(tt.req)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateServiceCreate() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}
