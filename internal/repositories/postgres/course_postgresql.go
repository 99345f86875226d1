package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/skillbridge/marketplace-service/internal/cache"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a new course and invalidates list caches
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("instructor:%s:*", course.InstructorID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).First(&dbCourse, id).Error
		if err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithDetails retrieves a course with lessons and category
func (c *CoursePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := c.getDB(tx).WithContext(ctx).
		Preload("Category").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_lessons.lesson_order ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}

	course.LessonCount = len(course.Lessons)
	return &course, nil
}

// Update updates a course and invalidates its caches
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, course.InstructorID)

	return nil
}

// Delete soft deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var course models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id, instructor_id").First(&course, id).Error; err != nil {
		return fmt.Errorf("failed to get course before delete: %w", err)
	}

	if err := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, course.InstructorID)

	return nil
}

// List retrieves courses with filters and pagination
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})

	query = c.helpers.ApplyCourseFilters(query, filters)
	if filters.Query != nil && *filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", *filters.Query)
		query = query.Where("title ILIKE ? OR description ILIKE ?", searchQuery, searchQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.Preload("Category").Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// GetByInstructor retrieves courses owned by an instructor
func (c *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return c.List(ctx, tx, filters)
}

// Search performs full-text search on courses
func (c *CoursePostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.Query = &query
	return c.List(ctx, tx, filters)
}

// CreateLessons inserts lessons in batch
func (c *CoursePostgreSQL) CreateLessons(ctx context.Context, tx *gorm.DB, lessons []*models.CourseLesson) error {
	if len(lessons) == 0 {
		return nil
	}
	if err := c.getDB(tx).WithContext(ctx).Create(&lessons).Error; err != nil {
		return fmt.Errorf("failed to create lessons: %w", err)
	}
	return nil
}

// GetLessons returns a course's lessons in order
func (c *CoursePostgreSQL) GetLessons(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseLesson, error) {
	var lessons []*models.CourseLesson
	err := c.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("lesson_order ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}
	return lessons, nil
}

// CountLessons counts a course's lessons
func (c *CoursePostgreSQL) CountLessons(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.CourseLesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// DeleteLessons removes all lessons of a course
func (c *CoursePostgreSQL) DeleteLessons(ctx context.Context, tx *gorm.DB, courseID uint) error {
	if err := c.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&models.CourseLesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete lessons: %w", err)
	}
	return nil
}

// IncrementEnrollmentCount adjusts the denormalized enrollment counter
// atomically in the database, never read-modify-write in Go
func (c *CoursePostgreSQL) IncrementEnrollmentCount(ctx context.Context, tx *gorm.DB, id uint, delta int) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update enrollment count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d", id))

	return nil
}

// UpdateRating writes the recomputed rating aggregate
func (c *CoursePostgreSQL) UpdateRating(ctx context.Context, tx *gorm.DB, id uint, average float64, count int64) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"rating_average": average,
			"rating_count":   count,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update course rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d", id))

	return nil
}

// GetCourseStats computes enrollment statistics for a course
func (c *CoursePostgreSQL) GetCourseStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.CourseStats, error) {
	stats := &repositories.CourseStats{}
	db := c.getDB(tx).WithContext(ctx)

	cacheKey := fmt.Sprintf("course:%d:enrollments", id)
	err := c.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		fresh := &repositories.CourseStats{}

		type statusCount struct {
			Status models.EnrollmentStatus
			Count  int64
		}
		var counts []statusCount
		if err := db.Model(&models.Enrollment{}).
			Select("status, COUNT(*) as count").
			Where("course_id = ?", id).
			Group("status").
			Scan(&counts).Error; err != nil {
			return nil, fmt.Errorf("failed to count enrollments by status: %w", err)
		}

		for _, sc := range counts {
			fresh.TotalEnrollments += int(sc.Count)
			switch sc.Status {
			case models.EnrollmentActive:
				fresh.ActiveEnrollments = int(sc.Count)
			case models.EnrollmentCompleted:
				fresh.CompletedEnrollments = int(sc.Count)
			}
		}

		if fresh.TotalEnrollments > 0 {
			fresh.CompletionRate = float64(fresh.CompletedEnrollments) / float64(fresh.TotalEnrollments) * 100
		}

		var avgProgress *float64
		if err := db.Model(&models.Enrollment{}).
			Select("AVG(progress_overall)").
			Where("course_id = ?", id).
			Scan(&avgProgress).Error; err != nil {
			return nil, fmt.Errorf("failed to average progress: %w", err)
		}
		if avgProgress != nil {
			fresh.AverageProgress = *avgProgress
		}

		var rating repositories.RatingAggregate
		if err := db.Model(&models.Enrollment{}).
			Select("COALESCE(AVG(rating), 0) as average, COUNT(rating) as count").
			Where("course_id = ? AND rating IS NOT NULL", id).
			Scan(&rating).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate rating: %w", err)
		}
		fresh.AverageRating = rating.Average

		var revenue *float64
		if err := db.Model(&models.Enrollment{}).
			Select("SUM(amount_paid)").
			Where("course_id = ? AND status IN ?", id, []models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted}).
			Scan(&revenue).Error; err != nil {
			return nil, fmt.Errorf("failed to sum revenue: %w", err)
		}
		if revenue != nil {
			fresh.TotalRevenue = *revenue
		}

		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
