package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/services"
	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler groups the admin-only surface: platform dashboard, revenue
// exports, partner management and consultant approval.
type AdminHandler struct {
	BaseHandler
	dashboardService  services.DashboardService
	reportService     services.ReportService
	partnerService    services.PartnerService
	consultantService services.ConsultantService
	validator         *validator.Validator
}

func NewAdminHandler(
	dashboardService services.DashboardService,
	reportService services.ReportService,
	partnerService services.PartnerService,
	consultantService services.ConsultantService,
	validator *validator.Validator,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:       NewBaseHandler(logger),
		dashboardService:  dashboardService,
		reportService:     reportService,
		partnerService:    partnerService,
		consultantService: consultantService,
		validator:         validator,
	}
}

// GetDashboardStats retrieves platform-wide statistics
// @Summary Get platform dashboard
// @Description Retrieves totals, rates, revenue and trend data for the whole platform
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	h.LogRequest(c, "Getting platform dashboard stats")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.dashboardService.GetPlatformStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportRevenueReport downloads the revenue report as an xlsx workbook
// @Summary Export revenue report
// @Description Builds an xlsx workbook covering completed bookings and enrollments in the period
// @Tags admin
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/reports/revenue [get]
func (h *AdminHandler) ExportRevenueReport(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'from' must be YYYY-MM-DD",
			Details: err.Error(),
		})
		return
	}

	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'to' must be YYYY-MM-DD",
			Details: err.Error(),
		})
		return
	}
	// Include the whole end day.
	to = to.Add(24*time.Hour - time.Second)

	h.LogRequest(c, "Exporting revenue report", "from", c.Query("from"), "to", c.Query("to"))

	report, err := h.reportService.ExportRevenueReport(c.Request.Context(), from, to)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("revenue-report-%s-%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, report)
}

// ===== CONSULTANT APPROVAL =====

// GetPendingConsultants lists consultant applications awaiting approval
// @Summary Get pending consultants
// @Description Lists consultant profiles awaiting an approval decision
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} services.ConsultantListResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/consultants/pending [get]
func (h *AdminHandler) GetPendingConsultants(c *gin.Context) {
	h.LogRequest(c, "Getting pending consultant applications")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)
	filters := repositories.ConsultantFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	consultants, err := h.consultantService.GetPendingApproval(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultants)
}

// UpdateConsultantApproval approves or rejects a consultant application
// @Summary Update consultant approval
// @Description Sets the approval status of a consultant application
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Consultant ID"
// @Param approval body services.ConsultantApprovalRequest true "Approval decision"
// @Success 200 {object} services.ConsultantResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /admin/consultants/{id}/approval [put]
func (h *AdminHandler) UpdateConsultantApproval(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating consultant approval", "consultant_id", id)

	var req services.ConsultantApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	consultant, err := h.consultantService.UpdateApproval(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, consultant)
}

// ===== PARTNER MANAGEMENT =====

// CreatePartner registers a new partner organization
// @Summary Create partner
// @Description Registers a partner organization; admins only
// @Tags admin
// @Accept json
// @Produce json
// @Param partner body services.PartnerRequest true "Partner data"
// @Success 201 {object} models.Partner
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/partners [post]
func (h *AdminHandler) CreatePartner(c *gin.Context) {
	var req services.PartnerRequest
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

	h.LogRequest(c, "Creating partner", "name", req.Name)

	partner, err := h.partnerService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, partner)
}

// GetPartner retrieves a partner by ID
// @Summary Get partner
// @Description Retrieves a partner organization
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Partner ID"
// @Success 200 {object} models.Partner
// @Failure 404 {object} ErrorResponse
// @Router /admin/partners/{id} [get]
func (h *AdminHandler) GetPartner(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	partner, err := h.partnerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, partner)
}

// UpdatePartner updates a partner
// @Summary Update partner
// @Description Updates a partner organization; admins only
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Partner ID"
// @Param partner body services.PartnerRequest true "Partner data"
// @Success 200 {object} models.Partner
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/partners/{id} [put]
func (h *AdminHandler) UpdatePartner(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating partner", "partner_id", id)

	var req services.PartnerRequest
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

	partner, err := h.partnerService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, partner)
}

// DeletePartner removes a partner
// @Summary Delete partner
// @Description Removes a partner organization; admins only
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Partner ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/partners/{id} [delete]
func (h *AdminHandler) DeletePartner(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting partner", "partner_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.partnerService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListPartners lists partners
// @Summary List partners
// @Description Lists partner organizations with optional filtering
// @Tags admin
// @Accept json
// @Produce json
// @Param tier query string false "Partner tier (standard, premium)"
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/partners [get]
func (h *AdminHandler) ListPartners(c *gin.Context) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.PartnerFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if tier := c.Query("tier"); tier != "" {
		partnerTier := models.PartnerTier(tier)
		filters.Tier = &partnerTier
	}

	if query := c.Query("q"); query != "" {
		filters.Query = &query
	}

	partners, total, err := h.partnerService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partners":   partners,
		"pagination": models.NewPagination(total, page, size),
	})
}

func (h *AdminHandler) handleServiceError(c *gin.Context, err error) {
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

	// Handle specific admin-surface errors
	switch {
	case errors.Is(err, services.ErrConsultantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Consultant not found",
		})
	case errors.Is(err, services.ErrPartnerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Partner not found",
		})
	case errors.Is(err, services.ErrPartnerEmailExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Partner contact email already registered",
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
