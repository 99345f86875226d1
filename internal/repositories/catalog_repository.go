package repositories

import (
	"context"

	"github.com/skillbridge/marketplace-service/internal/models"
	"gorm.io/gorm"
)

// ServiceRepository interface for marketplace service operations
type ServiceRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, service *models.Service) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Service, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Service, error) // Include consultant, category
	Update(ctx context.Context, tx *gorm.DB, service *models.Service) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ServiceFilters) ([]*models.Service, int64, error)
	GetByConsultant(ctx context.Context, tx *gorm.DB, consultantID uint, filters ServiceFilters) ([]*models.Service, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters ServiceFilters) ([]*models.Service, int64, error)

	// Denormalized counters
	IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error
	UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error
}

// ConsultantRepository interface for consultant profile operations
type ConsultantRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, consultant *models.Consultant) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Consultant, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Consultant, error)
	Update(ctx context.Context, tx *gorm.DB, consultant *models.Consultant) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ConsultantFilters) ([]*models.Consultant, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters ConsultantFilters) ([]*models.Consultant, int64, error)
	GetPendingApproval(ctx context.Context, tx *gorm.DB, filters ConsultantFilters) ([]*models.Consultant, int64, error)

	// Lifecycle operations
	UpdateApproval(ctx context.Context, tx *gorm.DB, id uint, status models.ApprovalStatus, note *string, approvedBy string) error
	IncrementBookingCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error
	UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error

	// Validation and checks
	ExistsByUserID(ctx context.Context, tx *gorm.DB, userID string) (bool, error)
}

// CategoryRepository interface for category hierarchy operations
type CategoryRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Hierarchy operations
	List(ctx context.Context, tx *gorm.DB, filters CategoryFilters) ([]*models.Category, int64, error)
	GetChildren(ctx context.Context, tx *gorm.DB, parentID uint) ([]*models.Category, error)

	// Validation
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	HasChildren(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

// PartnerRepository interface for partner management operations
type PartnerRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, partner *models.Partner) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Partner, error)
	Update(ctx context.Context, tx *gorm.DB, partner *models.Partner) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters PartnerFilters) ([]*models.Partner, int64, error)

	// Validation
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}
