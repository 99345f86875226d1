package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingKind string

const (
	KindConsultation   BookingKind = "consultation"
	KindServiceBooking BookingKind = "service_booking"
)

type BookingStatus string

const (
	BookingScheduled   BookingStatus = "scheduled"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingRescheduled BookingStatus = "rescheduled"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
	BookingNoShow      BookingStatus = "no_show"
)

// NonTerminalStatuses are the statuses that still occupy the consultant's
// calendar; only these participate in conflict checks.
var NonTerminalStatuses = []BookingStatus{
	BookingScheduled,
	BookingConfirmed,
	BookingRescheduled,
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// RescheduleEntry is one element of the append-only reschedule history.
type RescheduleEntry struct {
	PreviousDate time.Time `json:"previous_date"`
	NewDate      time.Time `json:"new_date"`
	Reason       string    `json:"reason"`
	ActorID      string    `json:"actor_id"`
	At           time.Time `json:"at"`
}

// Booking is the unified record for consultations and marketplace service
// bookings; Kind tags the flow it originated from. Both kinds share the same
// state machine and conflict rules.
type Booking struct {
	ID   uint        `json:"id" gorm:"primaryKey"`
	Kind BookingKind `json:"kind" gorm:"not null;size:20;default:consultation;index"`

	ClientID     string `json:"client_id" gorm:"not null;index;size:255"`
	ConsultantID uint   `json:"consultant_id" gorm:"not null;index"`
	ServiceID    uint   `json:"service_id" gorm:"not null;index"`

	// Scheduling. EndTime is derived (ScheduledDate + Duration) and persisted
	// so overlap checks run store-side.
	ScheduledDate time.Time `json:"scheduled_date" gorm:"not null;index"`
	Duration      int       `json:"duration" gorm:"not null"` // minutes
	TimeSlot      string    `json:"time_slot" gorm:"not null;size:20"`
	EndTime       time.Time `json:"end_time" gorm:"not null"`

	Status BookingStatus `json:"status" gorm:"default:scheduled;index"`

	// Amount is a snapshot of the service price at booking time.
	Amount float64 `json:"amount" gorm:"not null"`

	Notes               *string `json:"notes" gorm:"type:text"`
	SpecialRequirements *string `json:"special_requirements" gorm:"type:text"`

	// RescheduleHistory holds []RescheduleEntry, append-only.
	RescheduleHistory datatypes.JSON `json:"reschedule_history" gorm:"type:jsonb"`

	CancellationReason *string    `json:"cancellation_reason" gorm:"type:text"`
	CancelledBy        *string    `json:"cancelled_by" gorm:"size:255"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CompletedAt        *time.Time `json:"completed_at"`

	// Feedback: settable once, only after completion.
	Rating     *int       `json:"rating"`
	Feedback   *string    `json:"feedback" gorm:"type:text"`
	FeedbackAt *time.Time `json:"feedback_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Client     User       `json:"client" gorm:"foreignKey:ClientID"`
	Consultant Consultant `json:"consultant" gorm:"foreignKey:ConsultantID"`
	Service    Service    `json:"service" gorm:"foreignKey:ServiceID"`
}

// FeedbackProvided reports whether feedback was already recorded.
func (b *Booking) FeedbackProvided() bool {
	return b.FeedbackAt != nil
}

// Overlaps reports whether the booking's interval intersects
// [start, end). Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.ScheduledDate.Before(end) && b.EndTime.After(start)
}

func (Booking) TableName() string {
	return "bookings"
}
