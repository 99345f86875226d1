package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	rating    RatingService
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService, rating RatingService) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		rating:    rating,
	}
}

// ===== CORE OPERATIONS =====

func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, studentID string) (*EnrollmentResponse, error) {
	s.logger.Info("Enrolling student", "course_id", courseID, "student_id", studentID)

	course, err := s.repo.Course().GetByID(ctx, s.db, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course.Status != models.CoursePublished {
		return nil, ErrCourseNotPublished
	}

	// Pre-check; the partial unique index is the real guard against two
	// concurrent enrollments.
	exists, err := s.repo.Enrollment().ExistsActive(ctx, s.db, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	totalLessons, err := s.repo.Course().CountLessons(ctx, s.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	enrollment := &models.Enrollment{
		StudentID:    studentID,
		CourseID:     courseID,
		Status:       models.EnrollmentActive,
		AmountPaid:   course.Price, // price snapshot at enrollment time
		TotalLessons: int(totalLessons),
	}

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		if err := txRepo.Enrollment().Create(ctx, tx, enrollment); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}
		if err := txRepo.Course().IncrementEnrollmentCount(ctx, tx, courseID, 1); err != nil {
			return fmt.Errorf("failed to increment enrollment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student enrolled", "enrollment_id", enrollment.ID, "course_id", courseID)

	if err := s.notifier.NotifyEnrollmentCreated(ctx, enrollment); err != nil {
		s.logger.Error("Failed to publish enrollment created event", "enrollment_id", enrollment.ID, "error", err)
	}

	return s.GetByID(ctx, enrollment.ID, studentID)
}

func (s *enrollmentService) GetByID(ctx context.Context, id uint, userID string) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.StudentID != userID && enrollment.Course.InstructorID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, id, "enrollment", "read", "not the student, instructor or admin")
		}
	}

	return buildEnrollmentResponse(enrollment, userID), nil
}

func (s *enrollmentService) List(ctx context.Context, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		filters.StudentID = &userID
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return buildEnrollmentListResponse(enrollments, total, filters, userID), nil
}

func (s *enrollmentService) GetByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error) {
	if studentID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, 0, "enrollment", "list", "not the student or admin")
		}
	}

	enrollments, total, err := s.repo.Enrollment().GetByStudent(ctx, s.db, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student enrollments: %w", err)
	}
	return buildEnrollmentListResponse(enrollments, total, filters, studentID), nil
}

// ===== PROGRESS AND LIFECYCLE =====

func (s *enrollmentService) UpdateProgress(ctx context.Context, id uint, req *UpdateProgressRequest, studentID string) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.StudentID != studentID {
		return nil, NewPermissionError(studentID, id, "enrollment", "progress", "not the enrolled student")
	}
	if enrollment.Status != models.EnrollmentActive {
		return nil, NewBusinessRuleError(
			"enrollment_not_active",
			fmt.Sprintf("progress cannot be updated while enrollment is %s", enrollment.Status),
			map[string]interface{}{"status": enrollment.Status},
		)
	}

	if err := s.lessonBelongsToCourse(ctx, enrollment.CourseID, req.LessonID); err != nil {
		return nil, err
	}

	completed := false
	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		progress := &models.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     req.LessonID,
			Done:         req.Done,
		}
		if err := txRepo.Enrollment().UpsertLessonProgress(ctx, tx, progress); err != nil {
			return fmt.Errorf("failed to upsert lesson progress: %w", err)
		}

		doneCount, err := txRepo.Enrollment().CountCompletedLessons(ctx, tx, enrollment.ID)
		if err != nil {
			return fmt.Errorf("failed to count completed lessons: %w", err)
		}

		enrollment.CompletedLessons = int(doneCount)
		if enrollment.TotalLessons > 0 {
			enrollment.ProgressOverall = float64(doneCount) / float64(enrollment.TotalLessons) * 100
		}

		if enrollment.TotalLessons > 0 && int(doneCount) >= enrollment.TotalLessons {
			now := time.Now().UTC()
			certID := certificateID(enrollment.ID, now)
			enrollment.Status = models.EnrollmentCompleted
			enrollment.CompletedAt = &now
			enrollment.CertificateID = &certID
			completed = true
		}

		return txRepo.Enrollment().Update(ctx, tx, enrollment)
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.logger.Info("Enrollment completed", "enrollment_id", enrollment.ID, "certificate_id", *enrollment.CertificateID)
		if err := s.notifier.NotifyEnrollmentCompleted(ctx, enrollment); err != nil {
			s.logger.Error("Failed to publish enrollment completed event", "enrollment_id", enrollment.ID, "error", err)
		}
	}

	return buildEnrollmentResponse(enrollment, studentID), nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, id uint, req *UpdateEnrollmentStatusRequest, actorID string) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.StudentID != actorID {
		isAdmin, err := s.repo.User().HasRole(ctx, actorID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(actorID, id, "enrollment", "update_status", "not the student or admin")
		}
	}

	if errs := s.validator.GetBusinessValidator().ValidateEnrollmentStatusTransition(enrollment.Status, req.Status); len(errs) > 0 {
		return nil, NewBusinessRuleError(
			"enrollment_status_transition",
			fmt.Sprintf("cannot transition enrollment from %s to %s", enrollment.Status, req.Status),
			map[string]interface{}{"from": enrollment.Status, "to": req.Status},
		)
	}

	now := time.Now().UTC()
	enrollment.Status = req.Status
	switch req.Status {
	case models.EnrollmentPaused:
		enrollment.PausedAt = &now
	case models.EnrollmentCompleted:
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
		if enrollment.CertificateID == nil {
			certID := certificateID(enrollment.ID, now)
			enrollment.CertificateID = &certID
		}
	}

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		return txRepo.Enrollment().Update(ctx, tx, enrollment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update enrollment status: %w", err)
	}

	if req.Status == models.EnrollmentCompleted {
		if err := s.notifier.NotifyEnrollmentCompleted(ctx, enrollment); err != nil {
			s.logger.Error("Failed to publish enrollment completed event", "enrollment_id", enrollment.ID, "error", err)
		}
	}

	return buildEnrollmentResponse(enrollment, actorID), nil
}

func (s *enrollmentService) SubmitReview(ctx context.Context, id uint, req *EnrollmentReviewRequest, studentID string) error {
	s.logger.Info("Submitting enrollment review", "enrollment_id", id, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.StudentID != studentID {
		return NewPermissionError(studentID, id, "enrollment", "review", "only the enrolled student may review")
	}
	if enrollment.Status != models.EnrollmentCompleted {
		return ErrEnrollmentNotCompleted
	}
	if enrollment.ReviewProvided() {
		return ErrReviewAlreadyGiven
	}

	now := time.Now().UTC()
	enrollment.Rating = &req.Rating
	enrollment.Review = req.Review
	enrollment.RatedAt = &now

	err = s.withTx(ctx, func(txRepo repositories.Repository, tx *gorm.DB) error {
		return txRepo.Enrollment().Update(ctx, tx, enrollment)
	})
	if err != nil {
		return fmt.Errorf("failed to store review: %w", err)
	}

	if err := s.rating.RecomputeCourse(ctx, enrollment.CourseID); err != nil {
		s.logger.Error("Failed to recompute course rating", "course_id", enrollment.CourseID, "error", err)
	}

	return nil
}

// ===== HELPERS =====

func (s *enrollmentService) lessonBelongsToCourse(ctx context.Context, courseID, lessonID uint) error {
	lessons, err := s.repo.Course().GetLessons(ctx, s.db, courseID)
	if err != nil {
		return fmt.Errorf("failed to get course lessons: %w", err)
	}
	for _, l := range lessons {
		if l.ID == lessonID {
			return nil
		}
	}
	return ErrLessonNotFound
}

// certificateID derives a stable certificate reference from the enrollment
// and its completion moment.
func certificateID(enrollmentID uint, at time.Time) string {
	return fmt.Sprintf("CERT-%d-%d", enrollmentID, at.Unix())
}

func buildEnrollmentResponse(enrollment *models.Enrollment, userID string) *EnrollmentResponse {
	return &EnrollmentResponse{
		Enrollment: enrollment,
		CanReview: enrollment.StudentID == userID &&
			enrollment.Status == models.EnrollmentCompleted &&
			!enrollment.ReviewProvided(),
	}
}

func buildEnrollmentListResponse(enrollments []*models.Enrollment, total int64, filters repositories.EnrollmentFilters, userID string) *EnrollmentListResponse {
	responses := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		responses = append(responses, buildEnrollmentResponse(e, userID))
	}

	limit := filters.Limit
	if limit < 1 {
		limit = len(enrollments)
		if limit < 1 {
			limit = 1
		}
	}
	page := filters.Offset/limit + 1

	return &EnrollmentListResponse{
		Enrollments: responses,
		Pagination:  models.NewPagination(total, page, limit),
	}
}

func (s *enrollmentService) withTx(ctx context.Context, fn func(txRepo repositories.Repository, tx *gorm.DB) error) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return fn(txRepo, nil)
	})
}
