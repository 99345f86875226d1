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

type ConsultantPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewConsultantPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ConsultantRepository {
	return &ConsultantPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *ConsultantPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a consultant profile
func (c *ConsultantPostgreSQL) Create(ctx context.Context, tx *gorm.DB, consultant *models.Consultant) error {
	if err := c.getDB(tx).WithContext(ctx).Create(consultant).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create consultant: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Consultant, "list:*")

	return nil
}

// GetByID retrieves a consultant by ID with caching
func (c *ConsultantPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Consultant, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var consultant models.Consultant

	err := c.cacheManager.Consultant.CacheOrExecute(ctx, cacheKey, &consultant, cache.ConsultantCacheConfig.TTL, func() (interface{}, error) {
		var dbConsultant models.Consultant
		err := c.getDB(tx).WithContext(ctx).Preload("Category").First(&dbConsultant, id).Error
		if err != nil {
			return nil, err
		}
		return &dbConsultant, nil
	})
	if err != nil {
		return nil, err
	}

	return &consultant, nil
}

// GetByUserID retrieves a consultant by the owning user's ID
func (c *ConsultantPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Consultant, error) {
	var consultant models.Consultant
	err := c.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&consultant).Error
	if err != nil {
		return nil, err
	}
	return &consultant, nil
}

// Update updates a consultant profile and invalidates caches
func (c *ConsultantPostgreSQL) Update(ctx context.Context, tx *gorm.DB, consultant *models.Consultant) error {
	if err := c.getDB(tx).WithContext(ctx).Save(consultant).Error; err != nil {
		return fmt.Errorf("failed to update consultant: %w", err)
	}

	cache.SafeDelete(ctx, c.cacheManager.Consultant, fmt.Sprintf("id:%d", consultant.ID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Consultant, "list:*")

	return nil
}

// List retrieves consultants with filters and pagination
func (c *ConsultantPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ConsultantFilters) ([]*models.Consultant, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Consultant{})

	query = c.helpers.ApplyConsultantFilters(query, filters)
	if filters.Query != nil && *filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", *filters.Query)
		query = query.Where("headline ILIKE ? OR bio ILIKE ?", searchQuery, searchQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var consultants []*models.Consultant
	err := query.Preload("Category").Find(&consultants).Error
	if err != nil {
		return nil, 0, err
	}

	return consultants, total, nil
}

// Search performs full-text search on consultant profiles
func (c *ConsultantPostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.ConsultantFilters) ([]*models.Consultant, int64, error) {
	filters.Query = &query
	return c.List(ctx, tx, filters)
}

// GetPendingApproval lists consultants awaiting admin review
func (c *ConsultantPostgreSQL) GetPendingApproval(ctx context.Context, tx *gorm.DB, filters repositories.ConsultantFilters) ([]*models.Consultant, int64, error) {
	pending := models.ApprovalPending
	filters.ApprovalStatus = &pending
	return c.List(ctx, tx, filters)
}

// UpdateApproval records the admin's approval decision
func (c *ConsultantPostgreSQL) UpdateApproval(ctx context.Context, tx *gorm.DB, id uint, status models.ApprovalStatus, note *string, approvedBy string) error {
	updates := map[string]interface{}{
		"approval_status": status,
		"approval_note":   note,
	}
	if status == models.ApprovalApproved {
		now := time.Now()
		updates["approved_at"] = &now
		updates["approved_by"] = approvedBy
	}

	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Consultant{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, c.cacheManager.Consultant, fmt.Sprintf("id:%d", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Consultant, "list:*")

	return nil
}

// IncrementBookingCount adjusts the denormalized booking counter atomically
func (c *ConsultantPostgreSQL) IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Consultant{}).
		Where("id = ?", id).
		UpdateColumn("total_bookings", gorm.Expr("total_bookings + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update booking count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, c.cacheManager.Consultant, fmt.Sprintf("id:%d", id))

	return nil
}

// UpdateRating writes the recomputed rating aggregate
func (c *ConsultantPostgreSQL) UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Consultant{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"rating":        average,
			"total_ratings": count,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update consultant rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, c.cacheManager.Consultant, fmt.Sprintf("id:%d", id))

	return nil
}

// ExistsByUserID reports whether the user already has a consultant profile
func (c *ConsultantPostgreSQL) ExistsByUserID(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Consultant{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}
