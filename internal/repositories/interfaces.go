package repositories

import (
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type BookingFilters struct {
	Kind         *models.BookingKind   `json:"kind"`
	Status       *models.BookingStatus `json:"status"`
	ClientID     *string               `json:"client_id"`
	ConsultantID *uint                 `json:"consultant_id"`
	ServiceID    *uint                 `json:"service_id"`
	DateFrom     *time.Time            `json:"date_from"`
	DateTo       *time.Time            `json:"date_to"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	SortBy       string                `json:"sort_by"`    // "scheduled_date", "created_at", "status"
	SortOrder    string                `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	Status    *models.EnrollmentStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	CourseID  *uint                    `json:"course_id"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type CourseFilters struct {
	Status       *models.CourseStatus `json:"status"`
	Level        *models.CourseLevel  `json:"level"`
	CategoryID   *uint                `json:"category_id"`
	InstructorID *string              `json:"instructor_id"`
	Language     *string              `json:"language"`
	PriceMin     *float64             `json:"price_min"`
	PriceMax     *float64             `json:"price_max"`
	RatingMin    *float64             `json:"rating_min"`
	Query        *string              `json:"query"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
	SortBy       string               `json:"sort_by"` // "created_at", "price", "rating_average", "enrollment_count"
	SortOrder    string               `json:"sort_order"`
}

type ServiceFilters struct {
	ConsultantID *uint    `json:"consultant_id"`
	CategoryID   *uint    `json:"category_id"`
	IsActive     *bool    `json:"is_active"`
	PriceMin     *float64 `json:"price_min"`
	PriceMax     *float64 `json:"price_max"`
	RatingMin    *float64 `json:"rating_min"`
	Query        *string  `json:"query"`
	Limit        int      `json:"limit"`
	Offset       int      `json:"offset"`
	SortBy       string   `json:"sort_by"`
	SortOrder    string   `json:"sort_order"`
}

type ConsultantFilters struct {
	ApprovalStatus *models.ApprovalStatus `json:"approval_status"`
	CategoryID     *uint                  `json:"category_id"`
	IsActive       *bool                  `json:"is_active"`
	RatingMin      *float64               `json:"rating_min"`
	RateMax        *float64               `json:"rate_max"`
	Query          *string                `json:"query"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	SortBy         string                 `json:"sort_by"`
	SortOrder      string                 `json:"sort_order"`
}

type CategoryFilters struct {
	Kind     *models.CategoryKind `json:"kind"`
	ParentID *uint                `json:"parent_id"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

type PartnerFilters struct {
	Tier      *models.PartnerTier `json:"tier"`
	IsActive  *bool               `json:"is_active"`
	Query     *string             `json:"query"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`
	SortOrder string              `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ConsultantStats struct {
	TotalBookings     int     `json:"total_bookings"`
	CompletedBookings int     `json:"completed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	NoShowBookings    int     `json:"no_show_bookings"`
	AverageRating     float64 `json:"average_rating"`
	TotalRatings      int     `json:"total_ratings"`
	TotalRevenue      float64 `json:"total_revenue"`
}

type CourseStats struct {
	TotalEnrollments     int     `json:"total_enrollments"`
	ActiveEnrollments    int     `json:"active_enrollments"`
	CompletedEnrollments int     `json:"completed_enrollments"`
	CompletionRate       float64 `json:"completion_rate"`
	AverageProgress      float64 `json:"average_progress"`
	AverageRating        float64 `json:"average_rating"`
	TotalRevenue         float64 `json:"total_revenue"`
}

type RatingAggregate struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
