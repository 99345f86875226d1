package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skillbridge/marketplace-service/internal/cache"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type BookingPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewBookingPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.BookingRepository {
	return &BookingPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (b *BookingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}

// Create inserts a new booking. The partial unique index on
// (consultant_id, scheduled_date, time_slot) rejects concurrent inserts for
// the same non-terminal slot, so callers must treat duplicate errors as a
// scheduling conflict.
func (b *BookingPostgreSQL) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if err := b.getDB(tx).WithContext(ctx).Create(booking).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	cache.InvalidateBookingCache(ctx, b.cacheManager, booking.ConsultantID)

	return nil
}

// GetByID retrieves a booking by ID
func (b *BookingPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := b.getDB(tx).WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails retrieves a booking with its service and consultant
func (b *BookingPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := b.getDB(tx).WithContext(ctx).
		Preload("Service").
		Preload("Consultant").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update persists changes to a booking
func (b *BookingPostgreSQL) Update(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if err := b.getDB(tx).WithContext(ctx).Save(booking).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}

	cache.InvalidateBookingCache(ctx, b.cacheManager, booking.ConsultantID)

	return nil
}

// Delete hard deletes a booking
func (b *BookingPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	booking, err := b.GetByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to get booking before delete: %w", err)
	}

	if err := b.getDB(tx).WithContext(ctx).Unscoped().Delete(&models.Booking{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	cache.InvalidateBookingCache(ctx, b.cacheManager, booking.ConsultantID)

	return nil
}

// List retrieves bookings with filters and pagination
func (b *BookingPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.BookingFilters) ([]*models.Booking, int64, error) {
	query := b.getDB(tx).WithContext(ctx).Model(&models.Booking{})

	query = b.helpers.ApplyBookingFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = b.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var bookings []*models.Booking
	err := query.Preload("Service").Preload("Consultant").Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// GetByClient retrieves bookings placed by a specific client
func (b *BookingPostgreSQL) GetByClient(ctx context.Context, tx *gorm.DB, clientID string, filters repositories.BookingFilters) ([]*models.Booking, int64, error) {
	filters.ClientID = &clientID
	return b.List(ctx, tx, filters)
}

// GetByConsultant retrieves bookings assigned to a consultant
func (b *BookingPostgreSQL) GetByConsultant(ctx context.Context, tx *gorm.DB, consultantID uint, filters repositories.BookingFilters) ([]*models.Booking, int64, error) {
	filters.ConsultantID = &consultantID
	return b.List(ctx, tx, filters)
}

// FindConflicts returns non-terminal bookings whose interval overlaps
// [start, end) for the given consultant. Two bookings overlap when one
// starts before the other ends on both sides, which also catches sessions
// of different durations that merely brush each other.
func (b *BookingPostgreSQL) FindConflicts(ctx context.Context, tx *gorm.DB, consultantID uint, start, end time.Time, excludeID *uint) ([]*models.Booking, error) {
	query := b.getDB(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("consultant_id = ?", consultantID).
		Where("status IN ?", models.NonTerminalStatuses).
		Where("scheduled_date < ? AND end_time > ?", end, start)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var conflicts []*models.Booking
	if err := query.Order("scheduled_date ASC").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("failed to find conflicting bookings: %w", err)
	}

	return conflicts, nil
}

// GetActiveForDay returns non-terminal bookings for a consultant on a
// calendar day, used to compute free slots
func (b *BookingPostgreSQL) GetActiveForDay(ctx context.Context, tx *gorm.DB, consultantID uint, day time.Time) ([]*models.Booking, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var bookings []*models.Booking
	err := b.getDB(tx).WithContext(ctx).
		Where("consultant_id = ?", consultantID).
		Where("status IN ?", models.NonTerminalStatuses).
		Where("scheduled_date >= ? AND scheduled_date < ?", dayStart, dayEnd).
		Order("scheduled_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for day: %w", err)
	}

	return bookings, nil
}

// GetConsultantStats computes booking statistics for a consultant
func (b *BookingPostgreSQL) GetConsultantStats(ctx context.Context, tx *gorm.DB, consultantID uint) (*repositories.ConsultantStats, error) {
	stats := &repositories.ConsultantStats{}
	db := b.getDB(tx).WithContext(ctx)

	cacheKey := fmt.Sprintf("consultant:%d:bookings", consultantID)
	err := b.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		fresh := &repositories.ConsultantStats{}

		type statusCount struct {
			Status models.BookingStatus
			Count  int64
		}
		var counts []statusCount
		if err := db.Model(&models.Booking{}).
			Select("status, COUNT(*) as count").
			Where("consultant_id = ?", consultantID).
			Group("status").
			Scan(&counts).Error; err != nil {
			return nil, fmt.Errorf("failed to count bookings by status: %w", err)
		}

		for _, c := range counts {
			fresh.TotalBookings += int(c.Count)
			switch c.Status {
			case models.BookingCompleted:
				fresh.CompletedBookings = int(c.Count)
			case models.BookingCancelled:
				fresh.CancelledBookings = int(c.Count)
			case models.BookingNoShow:
				fresh.NoShowBookings = int(c.Count)
			}
		}

		rating, err := b.GetConsultantRating(ctx, tx, consultantID)
		if err != nil {
			return nil, err
		}
		fresh.AverageRating = rating.Average
		fresh.TotalRatings = int(rating.Count)

		var revenue *float64
		if err := db.Model(&models.Booking{}).
			Select("SUM(amount)").
			Where("consultant_id = ? AND status = ?", consultantID, models.BookingCompleted).
			Scan(&revenue).Error; err != nil {
			return nil, fmt.Errorf("failed to sum revenue: %w", err)
		}
		if revenue != nil {
			fresh.TotalRevenue = *revenue
		}

		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GetServiceRating aggregates feedback ratings across completed bookings of a service
func (b *BookingPostgreSQL) GetServiceRating(ctx context.Context, tx *gorm.DB, serviceID uint) (*repositories.RatingAggregate, error) {
	var agg repositories.RatingAggregate
	err := b.getDB(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Select("COALESCE(AVG(rating), 0) as average, COUNT(rating) as count").
		Where("service_id = ? AND rating IS NOT NULL", serviceID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate service rating: %w", err)
	}
	return &agg, nil
}

// GetConsultantRating aggregates feedback ratings across a consultant's bookings
func (b *BookingPostgreSQL) GetConsultantRating(ctx context.Context, tx *gorm.DB, consultantID uint) (*repositories.RatingAggregate, error) {
	var agg repositories.RatingAggregate
	err := b.getDB(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Select("COALESCE(AVG(rating), 0) as average, COUNT(rating) as count").
		Where("consultant_id = ? AND rating IS NOT NULL", consultantID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate consultant rating: %w", err)
	}
	return &agg, nil
}
