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

type consultantService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewConsultantService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) ConsultantService {
	return &consultantService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
	}
}

// ===== PROFILE OPERATIONS =====

func (s *consultantService) Apply(ctx context.Context, req *ConsultantApplyRequest, userID string) (*ConsultantResponse, error) {
	s.logger.Info("Consultant application", "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.Consultant().ExistsByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if exists {
		return nil, ErrConsultantAlreadyExists
	}

	expertise, err := marshalExpertise(req.Expertise)
	if err != nil {
		return nil, err
	}

	consultant := &models.Consultant{
		UserID:         userID,
		Headline:       req.Headline,
		Bio:            req.Bio,
		Expertise:      expertise,
		HourlyRate:     req.HourlyRate,
		CategoryID:     req.CategoryID,
		ApprovalStatus: models.ApprovalPending,
		IsActive:       true,
	}

	if err := s.repo.Consultant().Create(ctx, s.db, consultant); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrConsultantAlreadyExists
		}
		return nil, fmt.Errorf("failed to create consultant profile: %w", err)
	}

	s.logger.Info("Consultant application submitted", "consultant_id", consultant.ID, "user_id", userID)
	return &ConsultantResponse{Consultant: consultant, CanEdit: true}, nil
}

func (s *consultantService) GetByID(ctx context.Context, id uint) (*ConsultantResponse, error) {
	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}
	return &ConsultantResponse{Consultant: consultant}, nil
}

func (s *consultantService) GetByUserID(ctx context.Context, userID string) (*ConsultantResponse, error) {
	consultant, err := s.repo.Consultant().GetByUserID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}
	return &ConsultantResponse{Consultant: consultant, CanEdit: true}, nil
}

func (s *consultantService) UpdateProfile(ctx context.Context, id uint, req *ConsultantApplyRequest, userID string) (*ConsultantResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	if consultant.UserID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, id, "consultant", "update", "not the profile owner or admin")
		}
	}

	expertise, err := marshalExpertise(req.Expertise)
	if err != nil {
		return nil, err
	}

	consultant.Headline = req.Headline
	consultant.Bio = req.Bio
	consultant.Expertise = expertise
	consultant.HourlyRate = req.HourlyRate
	consultant.CategoryID = req.CategoryID

	if err := s.repo.Consultant().Update(ctx, s.db, consultant); err != nil {
		return nil, fmt.Errorf("failed to update consultant: %w", err)
	}

	return &ConsultantResponse{Consultant: consultant, CanEdit: true}, nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *consultantService) List(ctx context.Context, filters repositories.ConsultantFilters) (*ConsultantListResponse, error) {
	// Public listings only surface approved profiles.
	if filters.ApprovalStatus == nil {
		approved := models.ApprovalApproved
		filters.ApprovalStatus = &approved
	}

	consultants, total, err := s.repo.Consultant().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultants: %w", err)
	}
	return buildConsultantListResponse(consultants, total, filters), nil
}

func (s *consultantService) GetPendingApproval(ctx context.Context, filters repositories.ConsultantFilters, userID string) (*ConsultantListResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, 0, "consultant", "list_pending", "admin role required")
	}

	consultants, total, err := s.repo.Consultant().GetPendingApproval(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending consultants: %w", err)
	}
	return buildConsultantListResponse(consultants, total, filters), nil
}

// ===== APPROVAL =====

func (s *consultantService) UpdateApproval(ctx context.Context, id uint, req *ConsultantApprovalRequest, adminID string) (*ConsultantResponse, error) {
	s.logger.Info("Updating consultant approval", "consultant_id", id, "status", req.Status, "admin_id", adminID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	isAdmin, err := s.repo.User().HasRole(ctx, adminID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(adminID, id, "consultant", "approve", "admin role required")
	}

	consultant, err := s.repo.Consultant().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	// Approved is final; a rejected profile may be re-reviewed.
	if consultant.ApprovalStatus == models.ApprovalApproved && req.Status == models.ApprovalRejected {
		return nil, NewBusinessRuleError(
			"consultant_already_approved",
			"an approved consultant cannot be rejected, deactivate instead",
			map[string]interface{}{"consultant_id": id},
		)
	}

	if err := s.repo.Consultant().UpdateApproval(ctx, s.db, id, req.Status, req.Note, adminID); err != nil {
		return nil, fmt.Errorf("failed to update approval: %w", err)
	}

	consultant, err = s.repo.Consultant().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload consultant: %w", err)
	}

	if consultant.ApprovalStatus == models.ApprovalApproved {
		if err := s.notifier.NotifyConsultantApproved(ctx, consultant); err != nil {
			s.logger.Error("Failed to publish consultant approved event", "consultant_id", id, "error", err)
		}
	}

	return &ConsultantResponse{Consultant: consultant, CanApprove: true}, nil
}

// ===== HELPERS =====

func marshalExpertise(expertise []string) (datatypes.JSON, error) {
	if expertise == nil {
		return nil, nil
	}
	raw, err := json.Marshal(expertise)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expertise: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func buildConsultantListResponse(consultants []*models.Consultant, total int64, filters repositories.ConsultantFilters) *ConsultantListResponse {
	responses := make([]*ConsultantResponse, 0, len(consultants))
	for _, c := range consultants {
		responses = append(responses, &ConsultantResponse{Consultant: c})
	}

	limit := filters.Limit
	if limit < 1 {
		limit = len(consultants)
		if limit < 1 {
			limit = 1
		}
	}
	page := filters.Offset/limit + 1

	return &ConsultantListResponse{
		Consultants: responses,
		Pagination:  models.NewPagination(total, page, limit),
	}
}
