package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type serviceCatalogService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewServiceCatalogService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ServiceCatalogService {
	return &serviceCatalogService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *serviceCatalogService) Create(ctx context.Context, req *CreateServiceRequest, userID string) (*ServiceResponse, error) {
	s.logger.Info("Creating service", "user_id", userID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateServiceCreate(req); len(errs) > 0 {
		return nil, errs
	}

	consultant, err := s.repo.Consultant().GetByUserID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(userID, 0, "service", "create", "consultant profile required")
		}
		return nil, fmt.Errorf("failed to get consultant profile: %w", err)
	}
	if consultant.ApprovalStatus != models.ApprovalApproved {
		return nil, NewBusinessRuleError(
			"consultant_not_approved",
			"services can only be offered by approved consultants",
			map[string]interface{}{"approval_status": consultant.ApprovalStatus},
		)
	}

	if req.CategoryID != nil {
		if _, err := s.repo.Category().GetByID(ctx, s.db, *req.CategoryID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}

	availability, err := marshalAvailability(req.Availability)
	if err != nil {
		return nil, err
	}

	service := &models.Service{
		ConsultantID: consultant.ID,
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Duration:     req.Duration,
		IsActive:     true,
		Availability: availability,
	}

	if err := s.repo.Service().Create(ctx, s.db, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.logger.Info("Service created", "service_id", service.ID, "consultant_id", consultant.ID)
	return &ServiceResponse{Service: service, CanEdit: true, CanBook: false}, nil
}

func (s *serviceCatalogService) GetByID(ctx context.Context, id uint) (*ServiceResponse, error) {
	service, err := s.repo.Service().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &ServiceResponse{
		Service: service,
		CanBook: service.IsActive && service.Consultant.Bookable(),
	}, nil
}

func (s *serviceCatalogService) Update(ctx context.Context, id uint, req *UpdateServiceRequest, userID string) (*ServiceResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateServiceUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	service, err := s.getOwned(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		service.Title = *req.Title
	}
	if req.Description != nil {
		service.Description = req.Description
	}
	if req.Price != nil {
		// Existing bookings keep their snapshotted amount.
		service.Price = *req.Price
	}
	if req.Duration != nil {
		service.Duration = *req.Duration
	}
	if req.CategoryID != nil {
		if _, err := s.repo.Category().GetByID(ctx, s.db, *req.CategoryID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
		service.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if req.Availability != nil {
		availability, err := marshalAvailability(req.Availability)
		if err != nil {
			return nil, err
		}
		service.Availability = availability
	}

	if err := s.repo.Service().Update(ctx, s.db, service); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	return &ServiceResponse{Service: service, CanEdit: true, CanBook: service.IsActive}, nil
}

// Deactivate is the soft delete: the row stays so historical bookings keep
// their price and title snapshot context.
func (s *serviceCatalogService) Deactivate(ctx context.Context, id uint, userID string) error {
	service, err := s.getOwned(ctx, id, userID, "deactivate")
	if err != nil {
		return err
	}

	if !service.IsActive {
		return nil
	}

	service.IsActive = false
	if err := s.repo.Service().Update(ctx, s.db, service); err != nil {
		return fmt.Errorf("failed to deactivate service: %w", err)
	}

	s.logger.Info("Service deactivated", "service_id", id, "user_id", userID)
	return nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *serviceCatalogService) List(ctx context.Context, filters repositories.ServiceFilters) (*ServiceListResponse, error) {
	services, total, err := s.repo.Service().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return buildServiceListResponse(services, total, filters), nil
}

func (s *serviceCatalogService) GetByConsultant(ctx context.Context, consultantID uint, filters repositories.ServiceFilters) (*ServiceListResponse, error) {
	services, total, err := s.repo.Service().GetByConsultant(ctx, s.db, consultantID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get consultant services: %w", err)
	}
	return buildServiceListResponse(services, total, filters), nil
}

func (s *serviceCatalogService) Search(ctx context.Context, query string, filters repositories.ServiceFilters) (*ServiceListResponse, error) {
	services, total, err := s.repo.Service().Search(ctx, s.db, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search services: %w", err)
	}
	return buildServiceListResponse(services, total, filters), nil
}

// ===== HELPERS =====

func (s *serviceCatalogService) getOwned(ctx context.Context, id uint, userID, action string) (*models.Service, error) {
	service, err := s.repo.Service().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, service.ConsultantID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	if consultant == nil || consultant.UserID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, id, "service", action, "not the owning consultant or admin")
		}
	}
	return service, nil
}

func marshalAvailability(availability map[string][]string) (datatypes.JSON, error) {
	if availability == nil {
		return nil, nil
	}
	raw, err := json.Marshal(availability)
	if err != nil {
		return nil, fmt.Errorf("failed to encode availability: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func buildServiceListResponse(services []*models.Service, total int64, filters repositories.ServiceFilters) *ServiceListResponse {
	responses := make([]*ServiceResponse, 0, len(services))
	for _, svc := range services {
		responses = append(responses, &ServiceResponse{
			Service: svc,
			CanBook: svc.IsActive,
		})
	}

	limit := filters.Limit
	if limit < 1 {
		limit = len(services)
		if limit < 1 {
			limit = 1
		}
	}
	page := filters.Offset/limit + 1

	return &ServiceListResponse{
		Services:   responses,
		Pagination: models.NewPagination(total, page, limit),
	}
}
