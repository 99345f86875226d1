package postgres

import (
	"context"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyBookingFilters applies common filters to booking queries
func (h *SharedHelpers) ApplyBookingFilters(query *gorm.DB, filters repositories.BookingFilters) *gorm.DB {
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.ConsultantID != nil {
		query = query.Where("consultant_id = ?", *filters.ConsultantID)
	}
	if filters.ServiceID != nil {
		query = query.Where("service_id = ?", *filters.ServiceID)
	}
	if filters.DateFrom != nil {
		query = query.Where("scheduled_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("scheduled_date <= ?", *filters.DateTo)
	}
	return query
}

// ApplyEnrollmentFilters applies common filters to enrollment queries
func (h *SharedHelpers) ApplyEnrollmentFilters(query *gorm.DB, filters repositories.EnrollmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyCourseFilters applies common filters to course queries
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}
	if filters.Language != nil {
		query = query.Where("language = ?", *filters.Language)
	}
	if filters.PriceMin != nil {
		query = query.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		query = query.Where("price <= ?", *filters.PriceMax)
	}
	if filters.RatingMin != nil {
		query = query.Where("rating_average >= ?", *filters.RatingMin)
	}
	return query
}

// ApplyServiceFilters applies common filters to service queries
func (h *SharedHelpers) ApplyServiceFilters(query *gorm.DB, filters repositories.ServiceFilters) *gorm.DB {
	if filters.ConsultantID != nil {
		query = query.Where("consultant_id = ?", *filters.ConsultantID)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.PriceMin != nil {
		query = query.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		query = query.Where("price <= ?", *filters.PriceMax)
	}
	if filters.RatingMin != nil {
		query = query.Where("rating_average >= ?", *filters.RatingMin)
	}
	return query
}

// ApplyConsultantFilters applies common filters to consultant queries
func (h *SharedHelpers) ApplyConsultantFilters(query *gorm.DB, filters repositories.ConsultantFilters) *gorm.DB {
	if filters.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filters.ApprovalStatus)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.RatingMin != nil {
		query = query.Where("rating >= ?", *filters.RatingMin)
	}
	if filters.RateMax != nil {
		query = query.Where("hourly_rate <= ?", *filters.RateMax)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":       true,
		"updated_at":       true,
		"id":               true,
		"title":            true,
		"name":             true,
		"status":           true,
		"price":            true,
		"hourly_rate":      true,
		"rating":           true,
		"rating_average":   true,
		"scheduled_date":   true,
		"enrollment_count": true,
		"total_bookings":   true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// CountActiveBookings counts non-terminal bookings for a consultant
func (h *SharedHelpers) CountActiveBookings(ctx context.Context, consultantID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("consultant_id = ? AND status IN ?", consultantID, models.NonTerminalStatuses).
		Count(&count).Error
	return count, err
}

// GetServiceBasicInfo gets service info needed for booking checks
func (h *SharedHelpers) GetServiceBasicInfo(ctx context.Context, serviceID uint) (*models.Service, error) {
	var service models.Service
	err := h.db.WithContext(ctx).
		Select("id, consultant_id, price, duration, is_active, availability").
		First(&service, serviceID).Error
	return &service, err
}
