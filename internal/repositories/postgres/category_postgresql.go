package postgres

import (
	"context"
	"fmt"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type CategoryPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCategoryPostgreSQL(db *gorm.DB) repositories.CategoryRepository {
	return &CategoryPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CategoryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a category
func (c *CategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := c.getDB(tx).WithContext(ctx).Create(category).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID
func (c *CategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	err := c.getDB(tx).WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug retrieves a category by its URL slug
func (c *CategoryPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error) {
	var category models.Category
	err := c.getDB(tx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update persists changes to a category
func (c *CategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := c.getDB(tx).WithContext(ctx).Save(category).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes a category. Callers must check HasChildren first.
func (c *CategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := c.getDB(tx).WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// List retrieves categories with filters
func (c *CategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CategoryFilters) ([]*models.Category, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Category{})

	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.ParentID != nil {
		query = query.Where("parent_id = ?", *filters.ParentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var categories []*models.Category
	err := query.Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// GetChildren returns direct children of a category
func (c *CategoryPostgreSQL) GetChildren(ctx context.Context, tx *gorm.DB, parentID uint) ([]*models.Category, error) {
	var children []*models.Category
	err := c.getDB(tx).WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get child categories: %w", err)
	}
	return children, nil
}

// ExistsBySlug reports whether a category with the slug exists
func (c *CategoryPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Category{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// HasChildren reports whether a category has child categories
func (c *CategoryPostgreSQL) HasChildren(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
