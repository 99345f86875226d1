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

type ServiceHandler struct {
	BaseHandler
	catalogService services.ServiceCatalogService
	validator      *validator.Validator
}

func NewServiceHandler(
	catalogService services.ServiceCatalogService,
	validator *validator.Validator,
	logger utils.Logger,
) *ServiceHandler {
	return &ServiceHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
		validator:      validator,
	}
}

// CreateService creates a new marketplace service
// @Summary Create service
// @Description Creates a bookable service offering; approved consultants only
// @Tags services
// @Accept json
// @Produce json
// @Param service body services.CreateServiceRequest true "Service data"
// @Success 201 {object} services.ServiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /services [post]
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var req services.CreateServiceRequest
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

	h.LogRequest(c, "Creating service", "title", req.Title)

	service, err := h.catalogService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetService retrieves a service by ID
// @Summary Get service
// @Description Retrieves a marketplace service offering
// @Tags services
// @Accept json
// @Produce json
// @Param id path uint true "Service ID"
// @Success 200 {object} services.ServiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /services/{id} [get]
func (h *ServiceHandler) GetService(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting service", "service_id", id)

	service, err := h.catalogService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// UpdateService updates an existing service
// @Summary Update service
// @Description Updates a service; the owning consultant and admins only
// @Tags services
// @Accept json
// @Produce json
// @Param id path uint true "Service ID"
// @Param service body services.UpdateServiceRequest true "Service update data"
// @Success 200 {object} services.ServiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /services/{id} [put]
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating service", "service_id", id)

	var req services.UpdateServiceRequest
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

	service, err := h.catalogService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeactivateService removes a service from the catalog
// @Summary Deactivate service
// @Description Soft-deactivates a service; existing bookings are unaffected
// @Tags services
// @Accept json
// @Produce json
// @Param id path uint true "Service ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /services/{id} [delete]
func (h *ServiceHandler) DeactivateService(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deactivating service", "service_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.catalogService.Deactivate(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Service deactivated successfully",
	})
}

// ListServices lists services with filters
// @Summary List services
// @Description Lists active marketplace services with optional filtering
// @Tags services
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} services.ServiceListResponse
// @Failure 500 {object} ErrorResponse
// @Router /services [get]
func (h *ServiceHandler) ListServices(c *gin.Context) {
	h.LogRequest(c, "Listing services")

	filters := h.parseServiceFilters(c)
	list, err := h.catalogService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// SearchServices searches services
// @Summary Search services
// @Description Searches active services by query string
// @Tags services
// @Accept json
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} services.ServiceListResponse
// @Failure 400 {object} ErrorResponse
// @Router /services/search [get]
func (h *ServiceHandler) SearchServices(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query parameter 'q' is required",
		})
		return
	}

	h.LogRequest(c, "Searching services", "query", query)

	filters := h.parseServiceFilters(c)
	list, err := h.catalogService.Search(c.Request.Context(), query, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetServicesByConsultant lists services offered by a consultant
// @Summary Get services by consultant
// @Description Lists the services offered by a specific consultant
// @Tags services
// @Accept json
// @Produce json
// @Param consultant_id path uint true "Consultant ID"
// @Success 200 {object} services.ServiceListResponse
// @Failure 400 {object} ErrorResponse
// @Router /services/consultant/{consultant_id} [get]
func (h *ServiceHandler) GetServicesByConsultant(c *gin.Context) {
	consultantID := h.parseIDParam(c, "consultant_id")
	if consultantID == 0 {
		return
	}

	h.LogRequest(c, "Getting services by consultant", "consultant_id", consultantID)

	filters := h.parseServiceFilters(c)
	list, err := h.catalogService.GetByConsultant(c.Request.Context(), consultantID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Helper methods

func (h *ServiceHandler) parseServiceFilters(c *gin.Context) repositories.ServiceFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.ServiceFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if categoryID := h.parseUintQuery(c, "category_id"); categoryID != nil {
		filters.CategoryID = categoryID
	}

	if priceMax := c.Query("price_max"); priceMax != "" {
		if v, err := strconv.ParseFloat(priceMax, 64); err == nil {
			filters.PriceMax = &v
		}
	}

	if ratingMin := c.Query("rating_min"); ratingMin != "" {
		if v, err := strconv.ParseFloat(ratingMin, 64); err == nil {
			filters.RatingMin = &v
		}
	}

	return filters
}

func (h *ServiceHandler) handleServiceError(c *gin.Context, err error) {
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

	// Handle specific catalog errors
	switch {
	case errors.Is(err, services.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Service not found",
		})
	case errors.Is(err, services.ErrServiceAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied to service",
		})
	case errors.Is(err, services.ErrConsultantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Consultant not found",
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
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Details: err.Error(),
		})
	}
}
