package validator

import (
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
)

// BookingCreateRequest is the payload for creating a consultation or a
// marketplace service booking.
type BookingCreateRequest struct {
	Kind                models.BookingKind `json:"kind" validate:"omitempty,oneof=consultation service_booking"`
	ServiceID           uint               `json:"service" validate:"required"`
	ConsultantID        uint               `json:"consultant" validate:"required"`
	ScheduledDate       time.Time          `json:"scheduled_date" validate:"required,future_date"`
	Duration            int                `json:"duration" validate:"required,booking_duration"`
	TimeSlot            string             `json:"time_slot" validate:"required,time_slot"`
	Notes               *string            `json:"notes" validate:"omitempty,max=2000"`
	SpecialRequirements *string            `json:"special_requirements" validate:"omitempty,max=2000"`
}

type BookingRescheduleRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required,future_date"`
	TimeSlot      string    `json:"time_slot" validate:"required,time_slot"`
	Reason        *string   `json:"reason" validate:"omitempty,max=500"`
}

type BookingStatusRequest struct {
	Status             models.BookingStatus `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
	CancellationReason *string              `json:"cancellation_reason" validate:"omitempty,max=500"`
}

type BookingFeedbackRequest struct {
	Rating   int     `json:"rating" validate:"required,rating_range"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type EnrollmentProgressRequest struct {
	LessonID uint `json:"lesson_id" validate:"required"`
	Done     bool `json:"done"`
}

type EnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=active completed cancelled paused expired"`
}

type EnrollmentReviewRequest struct {
	Rating int     `json:"rating" validate:"required,rating_range"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}

type CourseCreateRequest struct {
	Title       string             `json:"title" validate:"required,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=5000"`
	Price       float64            `json:"price" validate:"price_range"`
	Level       models.CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language    string             `json:"language" validate:"omitempty,max=10"`
	CategoryID  *uint              `json:"category_id"`
	Lessons     []LessonRequest    `json:"lessons" validate:"omitempty,dive"`
}

type CourseUpdateRequest struct {
	Title       *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Price       *float64            `json:"price" validate:"omitempty,price_range"`
	Level       *models.CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language    *string             `json:"language" validate:"omitempty,max=10"`
	CategoryID  *uint               `json:"category_id"`
}

type LessonRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=200"`
	Order    int     `json:"order" validate:"required,min=1"`
	Duration int     `json:"duration" validate:"omitempty,min=1,max=600"`
	Content  *string `json:"content"`
}

type ServiceCreateRequest struct {
	Title        string              `json:"title" validate:"required,min=1,max=200"`
	Description  *string             `json:"description" validate:"omitempty,max=5000"`
	Price        float64             `json:"price" validate:"required,price_range"`
	Duration     int                 `json:"duration" validate:"required,booking_duration"`
	CategoryID   *uint               `json:"category_id"`
	Availability map[string][]string `json:"availability" validate:"omitempty,weekly_availability"`
}

type ServiceUpdateRequest struct {
	Title        *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string             `json:"description" validate:"omitempty,max=5000"`
	Price        *float64            `json:"price" validate:"omitempty,price_range"`
	Duration     *int                `json:"duration" validate:"omitempty,booking_duration"`
	CategoryID   *uint               `json:"category_id"`
	IsActive     *bool               `json:"is_active"`
	Availability map[string][]string `json:"availability" validate:"omitempty,weekly_availability"`
}

type ConsultantApplyRequest struct {
	Headline   string   `json:"headline" validate:"required,min=1,max=200"`
	Bio        *string  `json:"bio" validate:"omitempty,max=2000"`
	Expertise  []string `json:"expertise" validate:"omitempty,max=15,dive,max=50"`
	HourlyRate float64  `json:"hourly_rate" validate:"price_range"`
	CategoryID *uint    `json:"category_id"`
}

type ConsultantApprovalRequest struct {
	Status models.ApprovalStatus `json:"status" validate:"required,oneof=approved rejected"`
	Note   *string               `json:"note" validate:"omitempty,max=500"`
}

type CategoryCreateRequest struct {
	Name        string              `json:"name" validate:"required,min=1,max=100"`
	Slug        string              `json:"slug" validate:"required,min=1,max=120"`
	Kind        models.CategoryKind `json:"kind" validate:"required,oneof=course service consultant"`
	Description *string             `json:"description" validate:"omitempty,max=500"`
	ParentID    *uint               `json:"parent_id"`
}

type PartnerRequest struct {
	Name         string             `json:"name" validate:"required,min=1,max=200"`
	ContactEmail string             `json:"contact_email" validate:"required,email"`
	ContactName  *string            `json:"contact_name" validate:"omitempty,max=100"`
	Website      *string            `json:"website" validate:"omitempty,url"`
	Tier         models.PartnerTier `json:"tier" validate:"omitempty,oneof=standard premium"`
	Notes        *string            `json:"notes" validate:"omitempty,max=2000"`
}
