package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

// ratingService recomputes denormalized rating aggregates from the stored
// ratings. Each recompute is a full AVG + COUNT pass followed by a single
// write-back; incremental updates drifted too easily under retries.
type ratingService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewRatingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) RatingService {
	return &ratingService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *ratingService) RecomputeConsultant(ctx context.Context, consultantID uint) error {
	agg, err := s.repo.Booking().GetConsultantRating(ctx, s.db, consultantID)
	if err != nil {
		return fmt.Errorf("failed to aggregate consultant ratings: %w", err)
	}

	average := roundToOneDecimal(agg.Average)
	if err := s.repo.Consultant().UpdateRating(ctx, s.db, consultantID, average, agg.Count); err != nil {
		return fmt.Errorf("failed to write consultant rating: %w", err)
	}

	s.logger.Debug("Consultant rating recomputed", "consultant_id", consultantID, "average", average, "count", agg.Count)
	return nil
}

func (s *ratingService) RecomputeService(ctx context.Context, serviceID uint) error {
	agg, err := s.repo.Booking().GetServiceRating(ctx, s.db, serviceID)
	if err != nil {
		return fmt.Errorf("failed to aggregate service ratings: %w", err)
	}

	average := roundToOneDecimal(agg.Average)
	if err := s.repo.Service().UpdateRating(ctx, s.db, serviceID, average, agg.Count); err != nil {
		return fmt.Errorf("failed to write service rating: %w", err)
	}

	s.logger.Debug("Service rating recomputed", "service_id", serviceID, "average", average, "count", agg.Count)
	return nil
}

func (s *ratingService) RecomputeCourse(ctx context.Context, courseID uint) error {
	agg, err := s.repo.Enrollment().GetCourseRating(ctx, s.db, courseID)
	if err != nil {
		return fmt.Errorf("failed to aggregate course ratings: %w", err)
	}

	average := roundToOneDecimal(agg.Average)
	if err := s.repo.Course().UpdateRating(ctx, s.db, courseID, average, agg.Count); err != nil {
		return fmt.Errorf("failed to write course rating: %w", err)
	}

	s.logger.Debug("Course rating recomputed", "course_id", courseID, "average", average, "count", agg.Count)
	return nil
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
