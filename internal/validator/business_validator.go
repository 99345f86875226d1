package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/skillbridge/marketplace-service/internal/models"
)

var timeSlotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateBookingCreate validates booking creation business rules
func (bv *BusinessValidator) ValidateBookingCreate(req *BookingCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Additional business validations
	errors = append(errors, bv.validateBookingBusinessRules(req)...)

	return errors
}

// ValidateBookingReschedule validates reschedule requests against the current booking
func (bv *BusinessValidator) ValidateBookingReschedule(req *BookingRescheduleRequest, existing *models.Booking) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if existing.Status.IsTerminal() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot reschedule a %s booking", existing.Status),
			Value:   existing.Status,
			Rule:    "business_logic",
		})
	}

	if req.ScheduledDate.Equal(existing.ScheduledDate) && req.TimeSlot == existing.TimeSlot {
		errors = append(errors, ValidationError{
			Field:   "scheduled_date",
			Message: "new date and time slot must differ from the current booking",
			Value:   req.ScheduledDate,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateBookingStatusTransition validates booking status transitions
func (bv *BusinessValidator) ValidateBookingStatusTransition(currentStatus, newStatus models.BookingStatus) ValidationErrors {
	var errors ValidationErrors

	// Define allowed transitions (rescheduled is only reachable through the reschedule operation)
	allowedTransitions := map[models.BookingStatus][]models.BookingStatus{
		models.BookingScheduled:   {models.BookingConfirmed, models.BookingCancelled},
		models.BookingConfirmed:   {models.BookingCompleted, models.BookingCancelled, models.BookingNoShow},
		models.BookingRescheduled: {models.BookingConfirmed, models.BookingCancelled},
		models.BookingCompleted:   {},
		models.BookingCancelled:   {},
		models.BookingNoShow:      {},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateEnrollmentStatusTransition validates enrollment status transitions
func (bv *BusinessValidator) ValidateEnrollmentStatusTransition(currentStatus, newStatus models.EnrollmentStatus) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.EnrollmentStatus][]models.EnrollmentStatus{
		models.EnrollmentActive:    {models.EnrollmentCompleted, models.EnrollmentCancelled, models.EnrollmentPaused, models.EnrollmentExpired},
		models.EnrollmentPaused:    {models.EnrollmentActive, models.EnrollmentCancelled},
		models.EnrollmentCompleted: {},
		models.EnrollmentCancelled: {},
		models.EnrollmentExpired:   {},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateCoursePublish validates whether a course can go live
func (bv *BusinessValidator) ValidateCoursePublish(course *models.Course, lessonCount int64) ValidationErrors {
	var errors ValidationErrors

	if course.Status == models.CourseArchived {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "cannot publish an archived course",
			Value:   course.Status,
			Rule:    "business_logic",
		})
	}

	if lessonCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "lessons",
			Message: "course must have at least one lesson before publishing",
			Value:   lessonCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateServiceCreate validates service creation business rules
func (bv *BusinessValidator) ValidateServiceCreate(req *ServiceCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateAvailability(req.Availability)...)

	return errors
}

// ValidateServiceUpdate validates service update business rules
func (bv *BusinessValidator) ValidateServiceUpdate(req *ServiceUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateAvailability(req.Availability)...)

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Session duration validation (15-480 minutes)
	bv.validate.RegisterValidation("booking_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 15 && duration <= 480
	})

	// Rating validation (1-5 stars)
	bv.validate.RegisterValidation("rating_range", func(fl validator.FieldLevel) bool {
		rating := fl.Field().Int()
		return rating >= 1 && rating <= 5
	})

	// Price validation (non-negative, sane upper bound)
	bv.validate.RegisterValidation("price_range", func(fl validator.FieldLevel) bool {
		price := fl.Field().Float()
		return price >= 0 && price <= 100000
	})

	// Scheduled date validation (must be in future)
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		// Check if field can be nil and is nil (for pointer types)
		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true // Optional field
		}

		// Handle both *time.Time and time.Time
		var date time.Time
		if field.Kind() == reflect.Ptr {
			date = field.Elem().Interface().(time.Time)
		} else {
			date = field.Interface().(time.Time)
		}

		return date.After(time.Now())
	})

	// Time slot validation (HH:MM, 24h)
	bv.validate.RegisterValidation("time_slot", func(fl validator.FieldLevel) bool {
		return timeSlotPattern.MatchString(fl.Field().String())
	})

	// Weekly availability map validation (weekday keys)
	bv.validate.RegisterValidation("weekly_availability", func(fl validator.FieldLevel) bool {
		availability, ok := fl.Field().Interface().(map[string][]string)
		if !ok {
			return false
		}
		for weekday := range availability {
			if !validWeekday(weekday) {
				return false
			}
		}
		return true
	})
}

// validateBookingBusinessRules validates business rules for booking creation
func (bv *BusinessValidator) validateBookingBusinessRules(req *BookingCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Bookings cannot be placed more than a year out
	if req.ScheduledDate.After(time.Now().AddDate(1, 0, 0)) {
		errors = append(errors, ValidationError{
			Field:   "scheduled_date",
			Message: "cannot be more than one year in the future",
			Value:   req.ScheduledDate,
			Rule:    "business_logic",
		})
	}

	return errors
}

// validateAvailability validates a weekly availability window map
func (bv *BusinessValidator) validateAvailability(availability map[string][]string) ValidationErrors {
	var errors ValidationErrors

	for weekday, slots := range availability {
		if !validWeekday(weekday) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("availability[%s]", weekday),
				Message: "invalid weekday key",
				Value:   weekday,
				Rule:    "business_logic",
			})
			continue
		}
		for i, slot := range slots {
			if !timeSlotPattern.MatchString(slot) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("availability[%s][%d]", weekday, i),
					Message: "time slot must be in HH:MM format",
					Value:   slot,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}

func validWeekday(weekday string) bool {
	switch strings.ToLower(weekday) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}
