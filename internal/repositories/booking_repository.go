package repositories

import (
	"context"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"gorm.io/gorm"
)

// BookingRepository interface for booking-specific operations
type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) // Include service, consultant
	Update(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters BookingFilters) ([]*models.Booking, int64, error)
	GetByClient(ctx context.Context, tx *gorm.DB, clientID string, filters BookingFilters) ([]*models.Booking, int64, error)
	GetByConsultant(ctx context.Context, tx *gorm.DB, consultantID uint, filters BookingFilters) ([]*models.Booking, int64, error)

	// Scheduling operations
	FindConflicts(ctx context.Context, tx *gorm.DB, consultantID uint, start, end time.Time, excludeID *uint) ([]*models.Booking, error)
	GetActiveForDay(ctx context.Context, tx *gorm.DB, consultantID uint, day time.Time) ([]*models.Booking, error)

	// Statistics
	GetConsultantStats(ctx context.Context, tx *gorm.DB, consultantID uint) (*ConsultantStats, error)
	GetServiceRating(ctx context.Context, tx *gorm.DB, serviceID uint) (*RatingAggregate, error)
	GetConsultantRating(ctx context.Context, tx *gorm.DB, consultantID uint) (*RatingAggregate, error)
}
