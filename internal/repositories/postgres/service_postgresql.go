package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/skillbridge/marketplace-service/internal/cache"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type ServicePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewServicePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ServiceRepository {
	return &ServicePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *ServicePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create creates a new service offering
func (s *ServicePostgreSQL) Create(ctx context.Context, tx *gorm.DB, service *models.Service) error {
	if err := s.getDB(tx).WithContext(ctx).Create(service).Error; err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, s.cacheManager.Service, fmt.Sprintf("consultant:%d:*", service.ConsultantID))
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Service, "list:*")

	return nil
}

// GetByID retrieves a service by ID with caching
func (s *ServicePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Service, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var service models.Service

	err := s.cacheManager.Service.CacheOrExecute(ctx, cacheKey, &service, cache.ServiceCacheConfig.TTL, func() (interface{}, error) {
		var dbService models.Service
		err := s.getDB(tx).WithContext(ctx).First(&dbService, id).Error
		if err != nil {
			return nil, err
		}
		return &dbService, nil
	})
	if err != nil {
		return nil, err
	}

	return &service, nil
}

// GetByIDWithDetails retrieves a service with consultant and category
func (s *ServicePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Service, error) {
	var service models.Service
	err := s.getDB(tx).WithContext(ctx).
		Preload("Consultant").
		Preload("Category").
		First(&service, id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// Update updates a service and invalidates its caches
func (s *ServicePostgreSQL) Update(ctx context.Context, tx *gorm.DB, service *models.Service) error {
	if err := s.getDB(tx).WithContext(ctx).Save(service).Error; err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	cache.InvalidateServiceCache(ctx, s.cacheManager, service.ID, service.ConsultantID)

	return nil
}

// Delete soft deletes a service
func (s *ServicePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var service models.Service
	if err := s.getDB(tx).WithContext(ctx).Select("id, consultant_id").First(&service, id).Error; err != nil {
		return fmt.Errorf("failed to get service before delete: %w", err)
	}

	if err := s.getDB(tx).WithContext(ctx).Delete(&models.Service{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	cache.InvalidateServiceCache(ctx, s.cacheManager, id, service.ConsultantID)

	return nil
}

// List retrieves services with filters and pagination
func (s *ServicePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ServiceFilters) ([]*models.Service, int64, error) {
	query := s.getDB(tx).WithContext(ctx).Model(&models.Service{})

	query = s.helpers.ApplyServiceFilters(query, filters)
	if filters.Query != nil && *filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", *filters.Query)
		query = query.Where("title ILIKE ? OR description ILIKE ?", searchQuery, searchQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var services []*models.Service
	err := query.Preload("Consultant").Preload("Category").Find(&services).Error
	if err != nil {
		return nil, 0, err
	}

	return services, total, nil
}

// GetByConsultant retrieves services offered by a consultant
func (s *ServicePostgreSQL) GetByConsultant(ctx context.Context, tx *gorm.DB, consultantID uint, filters repositories.ServiceFilters) ([]*models.Service, int64, error) {
	filters.ConsultantID = &consultantID
	return s.List(ctx, tx, filters)
}

// Search performs full-text search on services
func (s *ServicePostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.ServiceFilters) ([]*models.Service, int64, error) {
	filters.Query = &query
	return s.List(ctx, tx, filters)
}

// IncrementBookingCount adjusts the denormalized booking counter atomically
func (s *ServicePostgreSQL) IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		UpdateColumn("total_bookings", gorm.Expr("total_bookings + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update booking count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, s.cacheManager.Service, fmt.Sprintf("id:%d", id))

	return nil
}

// UpdateRating writes the recomputed rating aggregate
func (s *ServicePostgreSQL) UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"rating_average": average,
			"rating_count":   count,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update service rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, s.cacheManager.Service, fmt.Sprintf("id:%d", id))

	return nil
}
