package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/services"
	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

type BookingHandler struct {
	BaseHandler
	bookingService services.BookingService
	validator      *validator.Validator
}

func NewBookingHandler(
	bookingService services.BookingService,
	validator *validator.Validator,
	logger utils.Logger,
) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    NewBaseHandler(logger),
		bookingService: bookingService,
		validator:      validator,
	}
}

// CreateBooking creates a new booking
// @Summary Create booking
// @Description Books a consultant service slot for the authenticated client
// @Tags bookings
// @Accept json
// @Produce json
// @Param booking body services.CreateBookingRequest true "Booking data"
// @Success 201 {object} services.BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingRequest
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

	h.LogRequest(c, "Creating booking", "consultant_id", req.ConsultantID, "service_id", req.ServiceID)

	booking, err := h.bookingService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking retrieves a booking by ID
// @Summary Get booking
// @Description Retrieves a booking; only participants and admins may see it
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path uint true "Booking ID"
// @Success 200 {object} services.BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting booking", "booking_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings lists the caller's bookings
// @Summary List bookings
// @Description Lists bookings visible to the caller (own bookings, or all for admins)
// @Tags bookings
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param status query string false "Booking status"
// @Param kind query string false "Booking kind"
// @Success 200 {object} services.BookingListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	h.LogRequest(c, "Listing bookings")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseBookingFilters(c)
	bookings, err := h.bookingService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBookingsByClient lists bookings for a specific client
// @Summary Get bookings by client
// @Description Lists bookings made by a specific client; restricted to that client and admins
// @Tags bookings
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 200 {object} services.BookingListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings/client/{client_id} [get]
func (h *BookingHandler) GetBookingsByClient(c *gin.Context) {
	clientID := ParseStringIDParam(c, "client_id")
	if clientID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting bookings by client", "client_id", clientID)

	filters := h.parseBookingFilters(c)
	bookings, err := h.bookingService.GetByClient(c.Request.Context(), clientID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBookingsByConsultant lists bookings for a consultant profile
// @Summary Get bookings by consultant
// @Description Lists bookings assigned to a consultant; restricted to the owning consultant and admins
// @Tags bookings
// @Accept json
// @Produce json
// @Param consultant_id path uint true "Consultant ID"
// @Success 200 {object} services.BookingListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings/consultant/{consultant_id} [get]
func (h *BookingHandler) GetBookingsByConsultant(c *gin.Context) {
	consultantID := h.parseIDParam(c, "consultant_id")
	if consultantID == 0 {
		return
	}

	h.LogRequest(c, "Getting bookings by consultant", "consultant_id", consultantID)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseBookingFilters(c)
	bookings, err := h.bookingService.GetByConsultant(c.Request.Context(), consultantID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetAvailableSlots lists open slots for a consultant service on a given day
// @Summary Get available slots
// @Description Lists the bookable time slots for a consultant's service on a date
// @Tags bookings
// @Accept json
// @Produce json
// @Param consultant_id query uint true "Consultant ID"
// @Param service_id query uint true "Service ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} services.AvailableSlotsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bookings/availability [get]
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	consultantID := h.parseUintQuery(c, "consultant_id")
	serviceID := h.parseUintQuery(c, "service_id")
	if consultantID == nil || serviceID == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameters 'consultant_id' and 'service_id' are required",
		})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'date' must be YYYY-MM-DD",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Getting available slots", "consultant_id", *consultantID, "service_id", *serviceID, "date", c.Query("date"))

	slots, err := h.bookingService.GetAvailableSlots(c.Request.Context(), *consultantID, *serviceID, date)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// CheckAvailability checks a concrete slot for conflicts
// @Summary Check availability
// @Description Checks whether a consultant is free for a start time and duration
// @Tags bookings
// @Accept json
// @Produce json
// @Param consultant_id query uint true "Consultant ID"
// @Param start query string true "Start time (RFC3339)"
// @Param duration query int true "Duration in minutes"
// @Success 200 {object} services.AvailabilityResult
// @Failure 400 {object} ErrorResponse
// @Router /bookings/availability/check [get]
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	consultantID := h.parseUintQuery(c, "consultant_id")
	if consultantID == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'consultant_id' is required",
		})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'start' must be RFC3339",
			Details: err.Error(),
		})
		return
	}

	duration := h.parseIntQuery(c, "duration", 0)
	if duration <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'duration' must be a positive number of minutes",
		})
		return
	}

	h.LogRequest(c, "Checking availability", "consultant_id", *consultantID, "start", start, "duration", duration)

	result, err := h.bookingService.CheckAvailability(c.Request.Context(), *consultantID, start, duration, nil)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RescheduleBooking moves a booking to a new slot
// @Summary Reschedule booking
// @Description Moves a booking to a new date and time slot; clients and admins only
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path uint true "Booking ID"
// @Param reschedule body services.RescheduleBookingRequest true "New slot"
// @Success 200 {object} services.BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bookings/{id}/reschedule [put]
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rescheduling booking", "booking_id", id)

	var req services.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Reschedule(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus updates booking status
// @Summary Update booking status
// @Description Drives the booking state machine; the allowed transitions depend on the caller's role
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path uint true "Booking ID"
// @Param status body services.UpdateBookingStatusRequest true "Status update data"
// @Success 200 {object} services.BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /bookings/{id}/status [put]
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating booking status", "booking_id", id)

	var req services.UpdateBookingStatusRequest
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

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// SubmitBookingFeedback records the client's rating for a completed booking
// @Summary Submit booking feedback
// @Description Records a rating and optional feedback; clients only, once per booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path uint true "Booking ID"
// @Param feedback body services.BookingFeedbackRequest true "Feedback data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bookings/{id}/feedback [post]
func (h *BookingHandler) SubmitBookingFeedback(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting booking feedback", "booking_id", id)

	var req services.BookingFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.bookingService.SubmitFeedback(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Feedback submitted successfully",
	})
}

// GetConsultantBookingStats retrieves booking statistics for a consultant
// @Summary Get consultant booking stats
// @Description Retrieves booking statistics for a consultant profile
// @Tags bookings
// @Accept json
// @Produce json
// @Param consultant_id path uint true "Consultant ID"
// @Success 200 {object} repositories.ConsultantStats
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /bookings/consultant/{consultant_id}/stats [get]
func (h *BookingHandler) GetConsultantBookingStats(c *gin.Context) {
	consultantID := h.parseIDParam(c, "consultant_id")
	if consultantID == 0 {
		return
	}

	h.LogRequest(c, "Getting consultant booking stats", "consultant_id", consultantID)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.bookingService.GetConsultantStats(c.Request.Context(), consultantID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Helper methods

func (h *BookingHandler) parseBookingFilters(c *gin.Context) repositories.BookingFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.BookingFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "scheduled_date"),
		SortOrder: c.DefaultQuery("sort_order", "asc"),
	}

	if status := c.Query("status"); status != "" {
		bookingStatus := models.BookingStatus(status)
		filters.Status = &bookingStatus
	}

	if kind := c.Query("kind"); kind != "" {
		bookingKind := models.BookingKind(kind)
		filters.Kind = &bookingKind
	}

	if serviceID := h.parseUintQuery(c, "service_id"); serviceID != nil {
		filters.ServiceID = serviceID
	}

	if dateFrom := c.Query("date_from"); dateFrom != "" {
		if t, err := time.Parse("2006-01-02", dateFrom); err == nil {
			filters.DateFrom = &t
		}
	}

	if dateTo := c.Query("date_to"); dateTo != "" {
		if t, err := time.Parse("2006-01-02", dateTo); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}

func (h *BookingHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var conflictError *services.SchedulingConflictError
	if errors.As(err, &conflictError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Time slot is no longer available",
			Details: map[string]interface{}{
				"consultant_id":          conflictError.ConsultantID,
				"conflicting_booking_id": conflictError.ConflictingID,
				"start":                  conflictError.Start,
				"end":                    conflictError.End,
			},
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

	// Handle specific booking errors
	switch {
	case errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Booking not found",
		})
	case errors.Is(err, services.ErrBookingAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied to booking",
		})
	case errors.Is(err, services.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Service not found",
		})
	case errors.Is(err, services.ErrConsultantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Consultant not found",
		})
	case errors.Is(err, services.ErrServiceNotBookable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Service is not accepting bookings",
		})
	case errors.Is(err, services.ErrConsultantNotBookable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Consultant is not accepting bookings",
		})
	case errors.Is(err, services.ErrServiceConsultantMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Service does not belong to the requested consultant",
		})
	case errors.Is(err, services.ErrBookingInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Invalid booking status transition",
		})
	case errors.Is(err, services.ErrBookingNotReschedulable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Booking can no longer be rescheduled",
		})
	case errors.Is(err, services.ErrBookingNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Booking is not completed yet",
		})
	case errors.Is(err, services.ErrFeedbackAlreadyGiven):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Feedback has already been submitted for this booking",
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
		})
	}
}
