package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

type categoryService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCategoryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CategoryService {
	return &categoryService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *categoryService) Create(ctx context.Context, req *CreateCategoryRequest, adminID string) (*models.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, adminID, "create"); err != nil {
		return nil, err
	}

	exists, err := s.repo.Category().ExistsBySlug(ctx, s.db, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, ErrCategorySlugExists
	}

	if req.ParentID != nil {
		parent, err := s.repo.Category().GetByID(ctx, s.db, *req.ParentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get parent category: %w", err)
		}
		if parent.Kind != req.Kind {
			return nil, NewBusinessRuleError(
				"category_kind_mismatch",
				"child category must have the same kind as its parent",
				map[string]interface{}{"parent_kind": parent.Kind, "kind": req.Kind},
			)
		}
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Kind:        req.Kind,
		Description: req.Description,
		ParentID:    req.ParentID,
	}

	if err := s.repo.Category().Create(ctx, s.db, category); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrCategorySlugExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created", "category_id", category.ID, "slug", category.Slug)
	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.Category().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repo.Category().GetBySlug(ctx, s.db, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, req *CreateCategoryRequest, adminID string) (*models.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, adminID, "update"); err != nil {
		return nil, err
	}

	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Slug != category.Slug {
		exists, err := s.repo.Category().ExistsBySlug(ctx, s.db, req.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if exists {
			return nil, ErrCategorySlugExists
		}
	}

	category.Name = req.Name
	category.Slug = req.Slug
	category.Kind = req.Kind
	category.Description = req.Description
	category.ParentID = req.ParentID

	if err := s.repo.Category().Update(ctx, s.db, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint, adminID string) error {
	if err := s.requireAdmin(ctx, adminID, "delete"); err != nil {
		return err
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	hasChildren, err := s.repo.Category().HasChildren(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to check children: %w", err)
	}
	if hasChildren {
		return ErrCategoryHasChildren
	}

	if err := s.repo.Category().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("Category deleted", "category_id", id, "admin_id", adminID)
	return nil
}

func (s *categoryService) List(ctx context.Context, filters repositories.CategoryFilters) ([]*models.Category, int64, error) {
	return s.repo.Category().List(ctx, s.db, filters)
}

func (s *categoryService) requireAdmin(ctx context.Context, userID, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, "category", action, "admin role required")
	}
	return nil
}
