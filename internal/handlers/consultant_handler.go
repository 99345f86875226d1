package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/services"
	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

type ConsultantHandler struct {
	BaseHandler
	consultantService services.ConsultantService
	validator         *validator.Validator
}

func NewConsultantHandler(
	consultantService services.ConsultantService,
	validator *validator.Validator,
	logger utils.Logger,
) *ConsultantHandler {
	return &ConsultantHandler{
		BaseHandler:       NewBaseHandler(logger),
		consultantService: consultantService,
		validator:         validator,
	}
}

// ApplyAsConsultant submits a consultant application
// @Summary Apply as consultant
// @Description Creates a consultant profile pending admin approval
// @Tags consultants
// @Accept json
// @Produce json
// @Param application body services.ConsultantApplyRequest true "Application data"
// @Success 201 {object} services.ConsultantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /consultants/apply [post]
func (h *ConsultantHandler) ApplyAsConsultant(c *gin.Context) {
	var req services.ConsultantApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Applying as consultant", "headline", req.Headline)

	consultant, err := h.consultantService.Apply(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, consultant)
}

// GetConsultant retrieves a consultant profile by ID
// @Summary Get consultant
// @Description Retrieves a consultant profile
// @Tags consultants
// @Accept json
// @Produce json
// @Param id path uint true "Consultant ID"
// @Success 200 {object} services.ConsultantResponse
// @Failure 404 {object} ErrorResponse
// @Router /consultants/{id} [get]
func (h *ConsultantHandler) GetConsultant(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting consultant", "consultant_id", id)

	consultant, err := h.consultantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultant)
}

// GetMyConsultantProfile retrieves the caller's consultant profile
// @Summary Get own consultant profile
// @Description Retrieves the consultant profile belonging to the authenticated user
// @Tags consultants
// @Accept json
// @Produce json
// @Success 200 {object} services.ConsultantResponse
// @Failure 404 {object} ErrorResponse
// @Router /consultants/me [get]
func (h *ConsultantHandler) GetMyConsultantProfile(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting own consultant profile")

	consultant, err := h.consultantService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultant)
}

// UpdateConsultantProfile updates a consultant profile
// @Summary Update consultant profile
// @Description Updates a consultant profile; the owner and admins only
// @Tags consultants
// @Accept json
// @Produce json
// @Param id path uint true "Consultant ID"
// @Param profile body services.ConsultantApplyRequest true "Profile data"
// @Success 200 {object} services.ConsultantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /consultants/{id} [put]
func (h *ConsultantHandler) UpdateConsultantProfile(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating consultant profile", "consultant_id", id)

	var req services.ConsultantApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	consultant, err := h.consultantService.UpdateProfile(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultant)
}

// ListConsultants lists approved consultants
// @Summary List consultants
// @Description Lists approved consultant profiles with optional filtering
// @Tags consultants
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} services.ConsultantListResponse
// @Failure 500 {object} ErrorResponse
// @Router /consultants [get]
func (h *ConsultantHandler) ListConsultants(c *gin.Context) {
	h.LogRequest(c, "Listing consultants")

	filters := h.parseConsultantFilters(c)
	consultants, err := h.consultantService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultants)
}

// Helper methods

func (h *ConsultantHandler) parseConsultantFilters(c *gin.Context) repositories.ConsultantFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.ConsultantFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "rating_average"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if categoryID := h.parseUintQuery(c, "category_id"); categoryID != nil {
		filters.CategoryID = categoryID
	}

	if ratingMin := c.Query("rating_min"); ratingMin != "" {
		if v, err := strconv.ParseFloat(ratingMin, 64); err == nil {
			filters.RatingMin = &v
		}
	}

	if rateMax := c.Query("rate_max"); rateMax != "" {
		if v, err := strconv.ParseFloat(rateMax, 64); err == nil {
			filters.RateMax = &v
		}
	}

	if query := c.Query("q"); query != "" {
		filters.Query = &query
	}

	return filters
}

func (h *ConsultantHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	// Handle specific consultant errors
	switch {
	case errors.Is(err, services.ErrConsultantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Consultant not found",
		})
	case errors.Is(err, services.ErrConsultantAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "User already has a consultant profile",
		})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Category not found",
		})
	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrInsufficientPermissions):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Details: err.Error(),
		})
	}
}
