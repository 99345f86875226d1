package validator

import (
	"errors"
	"testing"
)

// Validate must accept DTOs that carry custom rule tags; those rules are
// registered on the business validator's instance and the wrapper has to
// share it.
func TestValidator_CustomRulesRegistered(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		subject interface{}
		wantErr bool
	}{
		{name: "valid feedback rating", subject: &BookingFeedbackRequest{Rating: 5}, wantErr: false},
		{name: "rating above range", subject: &BookingFeedbackRequest{Rating: 6}, wantErr: true},
		{name: "valid review rating", subject: &EnrollmentReviewRequest{Rating: 1}, wantErr: false},
		{name: "valid consultant rate", subject: &ConsultantApplyRequest{Headline: "SAP consultant", HourlyRate: 120}, wantErr: false},
		{name: "negative consultant rate", subject: &ConsultantApplyRequest{Headline: "SAP consultant", HourlyRate: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Validate() panicked: %v", r)
				}
			}()
			err := v.Validate(tt.subject)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var errs ValidationErrors
				if !errors.As(err, &errs) {
					t.Errorf("Validate() error type = %T, want ValidationErrors", err)
				}
			}
		})
	}
}

func TestValidator_SharesBusinessInstance(t *testing.T) {
	v := New()
	if v.validate != v.business.validate {
		t.Error("Validator must share the business validator's registered instance")
	}
}
