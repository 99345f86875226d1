package repositories

import (
	"context"

	"github.com/skillbridge/marketplace-service/internal/models"
	"gorm.io/gorm"
)

// CourseRepository interface for course catalog operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Include lessons, category
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters CourseFilters) ([]*models.Course, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters CourseFilters) ([]*models.Course, int64, error)

	// Lesson operations
	CreateLessons(ctx context.Context, tx *gorm.DB, lessons []*models.CourseLesson) error
	GetLessons(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseLesson, error)
	CountLessons(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
	DeleteLessons(ctx context.Context, tx *gorm.DB, courseID uint) error

	// Denormalized counters
	IncrementEnrollmentCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error
	UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error

	// Statistics
	GetCourseStats(ctx context.Context, tx *gorm.DB, id uint) (*CourseStats, error)
}

// EnrollmentRepository interface for enrollment operations
type EnrollmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) // Include course
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetActiveByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (*models.Enrollment, error)

	// Progress operations
	UpsertLessonProgress(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error
	GetLessonProgress(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.LessonProgress, error)
	CountCompletedLessons(ctx context.Context, tx *gorm.DB, enrollmentID uint) (int64, error)

	// Rating aggregation
	GetCourseRating(ctx context.Context, tx *gorm.DB, courseID uint) (*RatingAggregate, error)

	// Validation and checks
	ExistsActive(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error)
}
