package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== DASHBOARD TOTALS =====

func (r *dashboardRepository) GetTotalCourses(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("deleted_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total courses: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetTotalServices(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Service{}).
		Where("deleted_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total services: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetTotalConsultants(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Consultant{}).
		Where("approval_status = ?", models.ApprovalApproved).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total consultants: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetTotalBookings(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total bookings: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetTotalEnrollments(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total enrollments: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetActiveClients(ctx context.Context, tx *gorm.DB, days int) (int64, error) {
	db := r.getDB(tx)
	var count int64

	startDate := time.Now().AddDate(0, 0, -days)

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("created_at >= ?", startDate).
		Distinct("client_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get active clients: %w", err)
	}

	return count, nil
}

// ===== METRICS =====

func (r *dashboardRepository) GetBookingCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	db := r.getDB(tx)

	var total int64
	var completed int64

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to get total bookings: %w", err)
	}

	if total == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", models.BookingCompleted).
		Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("failed to get completed bookings: %w", err)
	}

	return float64(completed) / float64(total) * 100, nil
}

func (r *dashboardRepository) GetCourseCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	db := r.getDB(tx)

	var total int64
	var completed int64

	if err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to get total enrollments: %w", err)
	}

	if total == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("status = ?", models.EnrollmentCompleted).
		Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("failed to get completed enrollments: %w", err)
	}

	return float64(completed) / float64(total) * 100, nil
}

func (r *dashboardRepository) GetCancellationRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	db := r.getDB(tx)

	var total int64
	var cancelled int64

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to get total bookings: %w", err)
	}

	if total == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", models.BookingCancelled).
		Count(&cancelled).Error; err != nil {
		return 0, fmt.Errorf("failed to get cancelled bookings: %w", err)
	}

	return float64(cancelled) / float64(total) * 100, nil
}

// ===== REVENUE =====

func (r *dashboardRepository) GetRevenueByPeriod(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]repositories.RevenueTrendData, error) {
	db := r.getDB(tx)

	var results []repositories.RevenueTrendData

	// One data point per month in the window
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	for cursor := start; cursor.Before(to); cursor = cursor.AddDate(0, 1, 0) {
		monthEnd := cursor.AddDate(0, 1, 0)

		var bookingRevenue *float64
		if err := db.WithContext(ctx).
			Model(&models.Booking{}).
			Select("SUM(amount)").
			Where("status = ? AND completed_at >= ? AND completed_at < ?", models.BookingCompleted, cursor, monthEnd).
			Scan(&bookingRevenue).Error; err != nil {
			return nil, fmt.Errorf("failed to sum booking revenue: %w", err)
		}

		var courseRevenue *float64
		if err := db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Select("SUM(amount_paid)").
			Where("created_at >= ? AND created_at < ? AND status IN ?", cursor, monthEnd,
				[]models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted}).
			Scan(&courseRevenue).Error; err != nil {
			return nil, fmt.Errorf("failed to sum course revenue: %w", err)
		}

		row := repositories.RevenueTrendData{
			Period: cursor.Format("2006-01"),
			Date:   cursor,
		}
		if bookingRevenue != nil {
			row.BookingRevenue = *bookingRevenue
		}
		if courseRevenue != nil {
			row.CourseRevenue = *courseRevenue
		}
		row.Total = row.BookingRevenue + row.CourseRevenue

		results = append(results, row)
	}

	return results, nil
}

func (r *dashboardRepository) GetTotalRevenue(ctx context.Context, tx *gorm.DB, from, to time.Time) (float64, error) {
	db := r.getDB(tx)

	var bookingRevenue *float64
	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("SUM(amount)").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.BookingCompleted, from, to).
		Scan(&bookingRevenue).Error; err != nil {
		return 0, fmt.Errorf("failed to sum booking revenue: %w", err)
	}

	var courseRevenue *float64
	if err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("SUM(amount_paid)").
		Where("created_at >= ? AND created_at < ? AND status IN ?", from, to,
			[]models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted}).
		Scan(&courseRevenue).Error; err != nil {
		return 0, fmt.Errorf("failed to sum course revenue: %w", err)
	}

	total := 0.0
	if bookingRevenue != nil {
		total += *bookingRevenue
	}
	if courseRevenue != nil {
		total += *courseRevenue
	}

	return total, nil
}

// ===== ACTIVITY TRENDS =====

func (r *dashboardRepository) GetBookingTrends(ctx context.Context, tx *gorm.DB, period string) ([]repositories.BookingTrendData, error) {
	db := r.getDB(tx)

	var results []repositories.BookingTrendData

	switch period {
	case "week":
		// Last 7 days
		for i := 6; i >= 0; i-- {
			date := time.Now().AddDate(0, 0, -i)
			startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
			endOfDay := startOfDay.Add(24 * time.Hour)

			row, err := r.bookingTrendPoint(ctx, db, startOfDay, endOfDay)
			if err != nil {
				return nil, err
			}
			row.Period = date.Format("Mon")
			row.Date = date
			results = append(results, row)
		}

	case "month":
		// Last 30 days, grouped by week
		for i := 3; i >= 0; i-- {
			endDate := time.Now().AddDate(0, 0, -i*7)
			startDate := endDate.AddDate(0, 0, -7)

			row, err := r.bookingTrendPoint(ctx, db, startDate, endDate)
			if err != nil {
				return nil, err
			}
			row.Period = fmt.Sprintf("W%d", 4-i)
			row.Date = startDate
			results = append(results, row)
		}

	case "year":
		// Last 12 months
		for i := 11; i >= 0; i-- {
			date := time.Now().AddDate(0, -i, 0)
			startOfMonth := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
			endOfMonth := startOfMonth.AddDate(0, 1, 0)

			row, err := r.bookingTrendPoint(ctx, db, startOfMonth, endOfMonth)
			if err != nil {
				return nil, err
			}
			row.Period = startOfMonth.Format("Jan")
			row.Date = startOfMonth
			results = append(results, row)
		}

	default:
		return nil, fmt.Errorf("unsupported period: %s", period)
	}

	return results, nil
}

func (r *dashboardRepository) bookingTrendPoint(ctx context.Context, db *gorm.DB, start, end time.Time) (repositories.BookingTrendData, error) {
	var row repositories.BookingTrendData

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&row.Bookings).Error; err != nil {
		return row, fmt.Errorf("failed to count bookings: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ? AND status = ?", start, end, models.BookingCompleted).
		Count(&row.Completed).Error; err != nil {
		return row, fmt.Errorf("failed to count completed bookings: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ? AND status = ?", start, end, models.BookingCancelled).
		Count(&row.Cancelled).Error; err != nil {
		return row, fmt.Errorf("failed to count cancelled bookings: %w", err)
	}

	return row, nil
}

// ===== RECENT ACTIVITY =====

func (r *dashboardRepository) GetRecentBookings(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentBookingData, error) {
	db := r.getDB(tx)

	if limit <= 0 {
		limit = 10
	}

	var results []repositories.RecentBookingData
	err := db.WithContext(ctx).
		Table("bookings b").
		Select(`b.id, b.client_id, b.consultant_id, b.status, b.scheduled_date, b.created_at,
			s.title as service_title`).
		Joins("LEFT JOIN services s ON s.id = b.service_id").
		Order("b.created_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent bookings: %w", err)
	}

	return results, nil
}

// ===== TOP PERFORMERS =====

func (r *dashboardRepository) GetTopConsultants(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.ConsultantRankData, error) {
	db := r.getDB(tx)

	if limit <= 0 {
		limit = 5
	}

	var results []repositories.ConsultantRankData
	err := db.WithContext(ctx).
		Table("consultants c").
		Select(`c.id as consultant_id, c.headline as name, c.rating as average_rating,
			COUNT(b.id) FILTER (WHERE b.status = 'completed') as completed_bookings,
			COALESCE(SUM(b.amount) FILTER (WHERE b.status = 'completed'), 0) as revenue`).
		Joins("LEFT JOIN bookings b ON b.consultant_id = c.id").
		Where("c.approval_status = ?", models.ApprovalApproved).
		Group("c.id, c.headline, c.rating").
		Order("completed_bookings DESC, average_rating DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top consultants: %w", err)
	}

	return results, nil
}

func (r *dashboardRepository) GetTopCourses(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.CourseRankData, error) {
	db := r.getDB(tx)

	if limit <= 0 {
		limit = 5
	}

	var results []repositories.CourseRankData
	err := db.WithContext(ctx).
		Table("courses c").
		Select(`c.id as course_id, c.title, c.rating_average as average_rating,
			COUNT(e.id) as enrollments,
			COALESCE(SUM(e.amount_paid), 0) as revenue`).
		Joins("LEFT JOIN enrollments e ON e.course_id = c.id").
		Where("c.deleted_at IS NULL").
		Group("c.id, c.title, c.rating_average").
		Order("enrollments DESC, average_rating DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top courses: %w", err)
	}

	return results, nil
}
