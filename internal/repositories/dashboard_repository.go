package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	// Dashboard totals
	GetTotalCourses(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalServices(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalConsultants(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalBookings(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalEnrollments(ctx context.Context, tx *gorm.DB) (int64, error)
	GetActiveClients(ctx context.Context, tx *gorm.DB, days int) (int64, error)

	// Metrics
	GetBookingCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error)
	GetCourseCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error)
	GetCancellationRate(ctx context.Context, tx *gorm.DB) (float64, error)

	// Revenue
	GetRevenueByPeriod(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]RevenueTrendData, error)
	GetTotalRevenue(ctx context.Context, tx *gorm.DB, from, to time.Time) (float64, error)

	// Activity trends
	GetBookingTrends(ctx context.Context, tx *gorm.DB, period string) ([]BookingTrendData, error)

	// Recent activities
	GetRecentBookings(ctx context.Context, tx *gorm.DB, limit int) ([]RecentBookingData, error)

	// Top performers
	GetTopConsultants(ctx context.Context, tx *gorm.DB, limit int) ([]ConsultantRankData, error)
	GetTopCourses(ctx context.Context, tx *gorm.DB, limit int) ([]CourseRankData, error)
}

// Data structures for dashboard responses

type RevenueTrendData struct {
	Period         string  `json:"period"`
	BookingRevenue float64 `json:"booking_revenue"`
	CourseRevenue  float64 `json:"course_revenue"`
	Total          float64 `json:"total"`
	Date           time.Time
}

type BookingTrendData struct {
	Period    string `json:"period"`
	Bookings  int64  `json:"bookings"`
	Completed int64  `json:"completed"`
	Cancelled int64  `json:"cancelled"`
	Date      time.Time
}

type RecentBookingData struct {
	ID             uint      `json:"id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	ConsultantID   uint      `json:"consultant_id"`
	ConsultantName string    `json:"consultant_name"`
	ServiceTitle   string    `json:"service_title"`
	Status         string    `json:"status"`
	ScheduledDate  time.Time `json:"scheduled_date"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConsultantRankData struct {
	ConsultantID      uint    `json:"consultant_id"`
	Name              string  `json:"name"`
	CompletedBookings int64   `json:"completed_bookings"`
	AverageRating     float64 `json:"average_rating"`
	Revenue           float64 `json:"revenue"`
}

type CourseRankData struct {
	CourseID      uint    `json:"course_id"`
	Title         string  `json:"title"`
	Enrollments   int64   `json:"enrollments"`
	AverageRating float64 `json:"average_rating"`
	Revenue       float64 `json:"revenue"`
}
