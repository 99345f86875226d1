package services

import (
	"log/slog"
	"testing"
)

func TestNewRatingService(t *testing.T) {
	logger := slog.Default()

	svc := NewRatingService(nil, nil, logger)
	if svc == nil {
		t.Fatal("NewRatingService returned nil")
	}

	if _, ok := svc.(*ratingService); !ok {
		t.Errorf("Expected *ratingService, got %T", svc)
	}
}

func TestRoundToOneDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "exact", in: 4.5, want: 4.5},
		{name: "rounds up", in: 4.46, want: 4.5},
		{name: "rounds down", in: 4.44, want: 4.4},
		{name: "halfway rounds away from zero", in: 4.25, want: 4.3},
		{name: "zero for no ratings", in: 0, want: 0},
		{name: "repeating average", in: 14.0 / 3.0, want: 4.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundToOneDecimal(tt.in); got != tt.want {
				t.Errorf("roundToOneDecimal(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
