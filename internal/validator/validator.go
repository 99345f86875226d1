package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single field failure surfaced to clients.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s %s", ve.Field, ve.Message)
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps struct validation plus the business rule validator.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	// The business validator owns the instance with the custom rules
	// registered; struct-tag validation must run on the same instance or
	// DTOs carrying those tags would fail on unknown rules.
	business := NewBusinessValidator()
	return &Validator{
		validate: business.validate,
		business: business,
	}
}

// Validate runs plain struct-tag validation and returns ValidationErrors,
// or nil when the struct is valid.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ToValidationErrors converts go-playground field errors into the API shape.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "booking_duration":
		return "must be between 15 and 480 minutes"
	case "rating_range":
		return "must be between 1 and 5"
	case "future_date":
		return "must be in the future"
	case "time_slot":
		return "must be a HH:MM label"
	case "price_range":
		return "must be between 0 and 100000"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}
