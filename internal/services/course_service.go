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

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*CourseResponse, error) {
	s.logger.Info("Creating course", "instructor_id", instructorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canCreate, err := s.hasAnyRole(ctx, instructorID, models.RoleInstructor, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !canCreate {
		return nil, NewPermissionError(instructorID, 0, "course", "create", "instructor role required")
	}

	if req.CategoryID != nil {
		if err := s.categoryExists(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	language := req.Language
	if language == "" {
		language = "en"
	}
	level := req.Level
	if level == "" {
		level = models.LevelBeginner
	}

	course := &models.Course{
		InstructorID: instructorID,
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Level:        level,
		Language:     language,
		Status:       models.CourseDraft,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Course().Create(ctx, tx, course); err != nil {
			return fmt.Errorf("failed to create course: %w", err)
		}
		if len(req.Lessons) > 0 {
			lessons := make([]*models.CourseLesson, 0, len(req.Lessons))
			for _, l := range req.Lessons {
				lessons = append(lessons, &models.CourseLesson{
					CourseID: course.ID,
					Title:    l.Title,
					Order:    l.Order,
					Duration: l.Duration,
					Content:  l.Content,
				})
			}
			if err := s.repo.Course().CreateLessons(ctx, tx, lessons); err != nil {
				return fmt.Errorf("failed to create lessons: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created", "course_id", course.ID)
	return s.GetByIDWithDetails(ctx, course.ID, instructorID)
}

func (s *courseService) GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return s.buildCourseResponse(ctx, course, userID)
}

func (s *courseService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course with details: %w", err)
	}
	return s.buildCourseResponse(ctx, course, userID)
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.getEditable(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.categoryExists(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		course.CategoryID = req.CategoryID
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Language != nil {
		course.Language = *req.Language
	}

	if err := s.repo.Course().Update(ctx, s.db, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return s.buildCourseResponse(ctx, course, userID)
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	course, err := s.getEditable(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	if course.EnrollmentCount > 0 {
		return NewBusinessRuleError(
			"course_has_enrollments",
			"course with enrollments cannot be deleted, archive it instead",
			map[string]interface{}{"enrollment_count": course.EnrollmentCount},
		)
	}

	if err := s.repo.Course().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", userID)
	return nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return buildCourseListResponse(courses, total, filters), nil
}

func (s *courseService) GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().GetByInstructor(ctx, s.db, instructorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor courses: %w", err)
	}
	return buildCourseListResponse(courses, total, filters), nil
}

func (s *courseService) Search(ctx context.Context, query string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().Search(ctx, s.db, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}
	return buildCourseListResponse(courses, total, filters), nil
}

// ===== STATUS MANAGEMENT =====

func (s *courseService) Publish(ctx context.Context, id uint, userID string) error {
	course, err := s.getEditable(ctx, id, userID, "publish")
	if err != nil {
		return err
	}

	lessonCount, err := s.repo.Course().CountLessons(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateCoursePublish(course, lessonCount); len(errs) > 0 {
		return errs
	}

	now := time.Now().UTC()
	course.Status = models.CoursePublished
	course.IsPublished = true
	course.PublishedAt = &now

	if err := s.repo.Course().Update(ctx, s.db, course); err != nil {
		return fmt.Errorf("failed to publish course: %w", err)
	}

	s.logger.Info("Course published", "course_id", id)

	if err := s.notifier.NotifyCoursePublished(ctx, course); err != nil {
		s.logger.Error("Failed to publish course event", "course_id", id, "error", err)
	}
	return nil
}

func (s *courseService) Archive(ctx context.Context, id uint, userID string) error {
	course, err := s.getEditable(ctx, id, userID, "archive")
	if err != nil {
		return err
	}

	if course.Status == models.CourseArchived {
		return NewBusinessRuleError(
			"course_already_archived",
			"course is already archived",
			map[string]interface{}{"course_id": id},
		)
	}

	course.Status = models.CourseArchived
	course.IsPublished = false

	if err := s.repo.Course().Update(ctx, s.db, course); err != nil {
		return fmt.Errorf("failed to archive course: %w", err)
	}

	s.logger.Info("Course archived", "course_id", id)
	return nil
}

// ===== STATISTICS =====

func (s *courseService) GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error) {
	course, err := s.repo.Course().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.InstructorID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, id, "course", "stats", "not the instructor or admin")
		}
	}

	return s.repo.Course().GetCourseStats(ctx, s.db, id)
}

// ===== HELPERS =====

// getEditable loads the course and enforces the owner-or-admin gate shared by
// every mutating operation.
func (s *courseService) getEditable(ctx context.Context, id uint, userID, action string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.InstructorID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, id, "course", action, "not the instructor or admin")
		}
	}
	return course, nil
}

func (s *courseService) hasAnyRole(ctx context.Context, userID string, roles ...models.UserRole) (bool, error) {
	for _, role := range roles {
		ok, err := s.repo.User().HasRole(ctx, userID, role)
		if err != nil {
			return false, fmt.Errorf("failed to check role: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseService) categoryExists(ctx context.Context, categoryID uint) error {
	_, err := s.repo.Category().GetByID(ctx, s.db, categoryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	return nil
}

func (s *courseService) buildCourseResponse(ctx context.Context, course *models.Course, userID string) (*CourseResponse, error) {
	isOwner := userID != "" && course.InstructorID == userID
	isAdmin := false
	if userID != "" && !isOwner {
		var err error
		isAdmin, err = s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
	}

	return &CourseResponse{
		Course:     course,
		CanEdit:    isOwner || isAdmin,
		CanPublish: (isOwner || isAdmin) && course.Status == models.CourseDraft,
		CanEnroll:  course.Status == models.CoursePublished && !isOwner,
	}, nil
}

func buildCourseListResponse(courses []*models.Course, total int64, filters repositories.CourseFilters) *CourseListResponse {
	responses := make([]*CourseResponse, 0, len(courses))
	for _, c := range courses {
		responses = append(responses, &CourseResponse{
			Course:    c,
			CanEnroll: c.Status == models.CoursePublished,
		})
	}

	limit := filters.Limit
	if limit < 1 {
		limit = len(courses)
		if limit < 1 {
			limit = 1
		}
	}
	page := filters.Offset/limit + 1

	return &CourseListResponse{
		Courses:    responses,
		Pagination: models.NewPagination(total, page, limit),
	}
}
