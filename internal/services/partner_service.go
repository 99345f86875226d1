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

type partnerService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPartnerService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) PartnerService {
	return &partnerService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *partnerService) Create(ctx context.Context, req *PartnerRequest, adminID string) (*models.Partner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, adminID, "create"); err != nil {
		return nil, err
	}

	exists, err := s.repo.Partner().ExistsByEmail(ctx, s.db, req.ContactEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check partner email: %w", err)
	}
	if exists {
		return nil, ErrPartnerEmailExists
	}

	tier := req.Tier
	if tier == "" {
		tier = models.TierStandard
	}

	partner := &models.Partner{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactName:  req.ContactName,
		Website:      req.Website,
		Tier:         tier,
		IsActive:     true,
		Notes:        req.Notes,
	}

	if err := s.repo.Partner().Create(ctx, s.db, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}

	s.logger.Info("Partner created", "partner_id", partner.ID, "name", partner.Name)
	return partner, nil
}

func (s *partnerService) GetByID(ctx context.Context, id uint) (*models.Partner, error) {
	partner, err := s.repo.Partner().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) Update(ctx context.Context, id uint, req *PartnerRequest, adminID string) (*models.Partner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, adminID, "update"); err != nil {
		return nil, err
	}

	partner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	partner.Name = req.Name
	partner.ContactEmail = req.ContactEmail
	partner.ContactName = req.ContactName
	partner.Website = req.Website
	if req.Tier != "" {
		partner.Tier = req.Tier
	}
	partner.Notes = req.Notes

	if err := s.repo.Partner().Update(ctx, s.db, partner); err != nil {
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) Delete(ctx context.Context, id uint, adminID string) error {
	if err := s.requireAdmin(ctx, adminID, "delete"); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Partner().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	s.logger.Info("Partner deleted", "partner_id", id, "admin_id", adminID)
	return nil
}

func (s *partnerService) List(ctx context.Context, filters repositories.PartnerFilters) ([]*models.Partner, int64, error) {
	return s.repo.Partner().List(ctx, s.db, filters)
}

func (s *partnerService) requireAdmin(ctx context.Context, userID, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, "partner", action, "admin role required")
	}
	return nil
}
