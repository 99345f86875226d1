package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/services"
	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	validator         *validator.Validator
}

func NewEnrollmentHandler(
	enrollmentService services.EnrollmentService,
	validator *validator.Validator,
	logger utils.Logger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		validator:         validator,
	}
}

// GetEnrollment retrieves an enrollment by ID
// @Summary Get enrollment
// @Description Retrieves an enrollment; visible to its student, the course instructor and admins
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting enrollment", "enrollment_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListEnrollments lists the caller's enrollments
// @Summary List enrollments
// @Description Lists enrollments visible to the caller (own enrollments, or all for admins)
// @Tags enrollments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param status query string false "Enrollment status"
// @Success 200 {object} services.EnrollmentListResponse
// @Failure 401 {object} ErrorResponse
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	h.LogRequest(c, "Listing enrollments")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseEnrollmentFilters(c)
	enrollments, err := h.enrollmentService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetEnrollmentsByStudent lists enrollments for a specific student
// @Summary Get enrollments by student
// @Description Lists enrollments for a specific student; restricted to that student and admins
// @Tags enrollments
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.EnrollmentListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /enrollments/student/{student_id} [get]
func (h *EnrollmentHandler) GetEnrollmentsByStudent(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting enrollments by student", "student_id", studentID)

	filters := h.parseEnrollmentFilters(c)
	enrollments, err := h.enrollmentService.GetByStudent(c.Request.Context(), studentID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// UpdateEnrollmentProgress records lesson completion for an enrollment
// @Summary Update enrollment progress
// @Description Marks a lesson done or not done and recomputes overall progress
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Param progress body services.UpdateProgressRequest true "Lesson progress data"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /enrollments/{id}/progress [put]
func (h *EnrollmentHandler) UpdateEnrollmentProgress(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating enrollment progress", "enrollment_id", id)

	var req services.UpdateProgressRequest
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

	enrollment, err := h.enrollmentService.UpdateProgress(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// UpdateEnrollmentStatus updates enrollment status
// @Summary Update enrollment status
// @Description Drives the enrollment state machine (pause, resume, cancel, complete)
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Param status body services.UpdateEnrollmentStatusRequest true "Status update data"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) UpdateEnrollmentStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating enrollment status", "enrollment_id", id)

	var req services.UpdateEnrollmentStatusRequest
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

	enrollment, err := h.enrollmentService.UpdateStatus(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// SubmitEnrollmentReview records the student's course review
// @Summary Submit enrollment review
// @Description Records a rating and optional review for a completed enrollment; once per enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Param review body services.EnrollmentReviewRequest true "Review data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /enrollments/{id}/review [post]
func (h *EnrollmentHandler) SubmitEnrollmentReview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting enrollment review", "enrollment_id", id)

	var req services.EnrollmentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.enrollmentService.SubmitReview(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Review submitted successfully",
	})
}

// Helper methods

func (h *EnrollmentHandler) parseEnrollmentFilters(c *gin.Context) repositories.EnrollmentFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.EnrollmentFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		enrollmentStatus := models.EnrollmentStatus(status)
		filters.Status = &enrollmentStatus
	}

	if courseID := h.parseUintQuery(c, "course_id"); courseID != nil {
		filters.CourseID = courseID
	}

	return filters
}

func (h *EnrollmentHandler) handleServiceError(c *gin.Context, err error) {
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

	// Handle specific enrollment errors
	switch {
	case errors.Is(err, services.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Enrollment not found",
		})
	case errors.Is(err, services.ErrEnrollmentAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied to enrollment",
		})
	case errors.Is(err, services.ErrEnrollmentInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Invalid enrollment status transition",
		})
	case errors.Is(err, services.ErrEnrollmentNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Enrollment is not completed yet",
		})
	case errors.Is(err, services.ErrReviewAlreadyGiven):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Review has already been submitted for this enrollment",
		})
	case errors.Is(err, services.ErrLessonNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Lesson not found in this course",
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
