package postgres

import (
	"context"
	"fmt"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type PartnerPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPartnerPostgreSQL(db *gorm.DB) repositories.PartnerRepository {
	return &PartnerPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *PartnerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// Create creates a partner record
func (p *PartnerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, partner *models.Partner) error {
	if err := p.getDB(tx).WithContext(ctx).Create(partner).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return nil
}

// GetByID retrieves a partner by ID
func (p *PartnerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Partner, error) {
	var partner models.Partner
	err := p.getDB(tx).WithContext(ctx).First(&partner, id).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// Update persists changes to a partner
func (p *PartnerPostgreSQL) Update(ctx context.Context, tx *gorm.DB, partner *models.Partner) error {
	if err := p.getDB(tx).WithContext(ctx).Save(partner).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to update partner: %w", err)
	}
	return nil
}

// Delete soft deletes a partner
func (p *PartnerPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := p.getDB(tx).WithContext(ctx).Delete(&models.Partner{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	return nil
}

// List retrieves partners with filters and pagination
func (p *PartnerPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.PartnerFilters) ([]*models.Partner, int64, error) {
	query := p.getDB(tx).WithContext(ctx).Model(&models.Partner{})

	if filters.Tier != nil {
		query = query.Where("tier = ?", *filters.Tier)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Query != nil && *filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", *filters.Query)
		query = query.Where("name ILIKE ? OR contact_email ILIKE ?", searchQuery, searchQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = p.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var partners []*models.Partner
	err := query.Find(&partners).Error
	if err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}

// ExistsByEmail reports whether a partner with the contact email exists
func (p *PartnerPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := p.getDB(tx).WithContext(ctx).
		Model(&models.Partner{}).
		Where("contact_email = ?", email).
		Count(&count).Error
	return count > 0, err
}
