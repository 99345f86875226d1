package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/skillbridge/marketplace-service/internal/cache"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create inserts a new enrollment. The partial unique index on
// (student_id, course_id) over active and completed rows turns a concurrent
// double-enroll into a duplicate error for the caller to map.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Stats, fmt.Sprintf("course:%d:*", enrollment.CourseID))

	return nil
}

// GetByID retrieves an enrollment by ID
func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByIDWithDetails retrieves an enrollment including its course
func (e *EnrollmentPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Course").
		First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Update persists changes to an enrollment
func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Save(enrollment).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Stats, fmt.Sprintf("course:%d:*", enrollment.CourseID))

	return nil
}

// List retrieves enrollments with filters and pagination
func (e *EnrollmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{})

	query = e.helpers.ApplyEnrollmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var enrollments []*models.Enrollment
	err := query.Preload("Course").Find(&enrollments).Error
	if err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// GetByStudent retrieves enrollments for a specific student
func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.StudentID = &studentID
	return e.List(ctx, tx, filters)
}

// GetByCourse retrieves enrollments for a specific course
func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.CourseID = &courseID
	return e.List(ctx, tx, filters)
}

// GetActiveByStudentAndCourse returns the student's live enrollment for a course
func (e *EnrollmentPostgreSQL) GetActiveByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status IN ?",
			studentID, courseID, []models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentPaused}).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpsertLessonProgress marks lesson completion idempotently
func (e *EnrollmentPostgreSQL) UpsertLessonProgress(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	err := e.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"done", "updated_at"}),
		}).
		Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}
	return nil
}

// GetLessonProgress returns all lesson progress rows for an enrollment
func (e *EnrollmentPostgreSQL) GetLessonProgress(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.LessonProgress, error) {
	var progress []*models.LessonProgress
	err := e.getDB(tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return progress, nil
}

// CountCompletedLessons counts finished lessons for an enrollment
func (e *EnrollmentPostgreSQL) CountCompletedLessons(ctx context.Context, tx *gorm.DB, enrollmentID uint) (int64, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.LessonProgress{}).
		Where("enrollment_id = ? AND done = ?", enrollmentID, true).
		Count(&count).Error
	return count, err
}

// GetCourseRating aggregates review ratings across a course's enrollments
func (e *EnrollmentPostgreSQL) GetCourseRating(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.RatingAggregate, error) {
	var agg repositories.RatingAggregate
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("COALESCE(AVG(rating), 0) as average, COUNT(rating) as count").
		Where("course_id = ? AND rating IS NOT NULL", courseID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate course rating: %w", err)
	}
	return &agg, nil
}

// ExistsActive reports whether the student already holds a live or completed
// enrollment for the course
func (e *EnrollmentPostgreSQL) ExistsActive(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status IN ?",
			studentID, courseID, []models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted, models.EnrollmentPaused}).
		Count(&count).Error
	return count > 0, err
}
