package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/skillbridge/marketplace-service/internal/validator"
)

// ===== GENERIC ERRORS =====

var (
	ErrNotFound                = errors.New("resource not found")
	ErrBadRequest              = errors.New("bad request")
	ErrConflict                = errors.New("resource conflict")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrValidationFailed        = errors.New("validation failed")
	ErrUserNotFound            = errors.New("user not found")
)

// ===== BOOKING ERRORS =====

var (
	ErrBookingNotFound           = errors.New("booking not found")
	ErrBookingAccessDenied       = errors.New("booking access denied")
	ErrBookingInvalidTransition  = errors.New("invalid booking status transition")
	ErrBookingNotReschedulable   = errors.New("booking cannot be rescheduled in current status")
	ErrBookingNotCompleted       = errors.New("booking is not completed")
	ErrFeedbackAlreadyGiven      = errors.New("feedback already submitted for this booking")
	ErrServiceNotBookable        = errors.New("service is not active")
	ErrConsultantNotBookable     = errors.New("consultant is not approved or not active")
	ErrServiceConsultantMismatch = errors.New("service does not belong to consultant")
)

// ===== ENROLLMENT ERRORS =====

var (
	ErrEnrollmentNotFound          = errors.New("enrollment not found")
	ErrEnrollmentAccessDenied      = errors.New("enrollment access denied")
	ErrEnrollmentInvalidTransition = errors.New("invalid enrollment status transition")
	ErrAlreadyEnrolled             = errors.New("student already has an active or completed enrollment")
	ErrEnrollmentNotCompleted      = errors.New("enrollment is not completed")
	ErrReviewAlreadyGiven          = errors.New("review already submitted for this enrollment")
	ErrCourseNotPublished          = errors.New("course is not published")
)

// ===== CATALOG ERRORS =====

var (
	ErrCourseNotFound          = errors.New("course not found")
	ErrCourseAccessDenied      = errors.New("course access denied")
	ErrCourseNotEditable       = errors.New("course cannot be edited in current status")
	ErrServiceNotFound         = errors.New("service not found")
	ErrServiceAccessDenied     = errors.New("service access denied")
	ErrConsultantNotFound      = errors.New("consultant not found")
	ErrConsultantAlreadyExists = errors.New("consultant profile already exists for this user")
	ErrCategoryNotFound        = errors.New("category not found")
	ErrCategorySlugExists      = errors.New("category slug already exists")
	ErrCategoryHasChildren     = errors.New("category has child categories")
	ErrLessonNotFound          = errors.New("lesson not found in course")
	ErrPartnerNotFound         = errors.New("partner not found")
	ErrPartnerEmailExists      = errors.New("partner contact email already exists")
)

// ===== VALIDATION ERROR TYPES =====

// Re-export the validator error shape so handlers only import services.
type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ===== BUSINESS RULE ERROR =====

// BusinessRuleError signals a semantically valid request that a domain rule
// rejects (maps to 422).
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// ===== PERMISSION ERROR =====

// PermissionError carries the who/what/why of a denied action (maps to 403).
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== SCHEDULING CONFLICT ERROR =====

// SchedulingConflictError reports that a requested interval overlaps an
// existing non-terminal booking. ConflictingID identifies the blocker so
// clients can surface it (maps to 409).
type SchedulingConflictError struct {
	ConsultantID  uint      `json:"consultant_id"`
	ConflictingID uint      `json:"conflicting_booking_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict: consultant %d already has booking %d overlapping %s - %s",
		e.ConsultantID, e.ConflictingID,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func NewSchedulingConflictError(consultantID, conflictingID uint, start, end time.Time) *SchedulingConflictError {
	return &SchedulingConflictError{
		ConsultantID:  consultantID,
		ConflictingID: conflictingID,
		Start:         start,
		End:           end,
	}
}
