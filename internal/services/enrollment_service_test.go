package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/skillbridge/marketplace-service/internal/events"
	"github.com/skillbridge/marketplace-service/internal/models"
	"github.com/skillbridge/marketplace-service/internal/repositories"
	"github.com/skillbridge/marketplace-service/internal/validator"
	"gorm.io/gorm"
)

func newTestEnrollmentService(repo *MockRepository) (EnrollmentService, *MockRatingService) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	rating := &MockRatingService{}
	notifier := newTestNotificationService(events.NewMockEventPublisher(logger))
	return NewEnrollmentService(repo, nil, logger, validator.New(), notifier, rating), rating
}

func seedPublishedCourse(repo *MockRepository) *models.Course {
	course := &models.Course{
		ID:           4,
		InstructorID: "instructor-1",
		Price:        99,
		Status:       models.CoursePublished,
	}
	repo.course.courses[course.ID] = course
	repo.course.lessonCounts[course.ID] = 8
	return course
}

func TestCertificateID(t *testing.T) {
	at := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)

	got := certificateID(42, at)
	want := "CERT-42-1789387200"
	if got != want {
		t.Errorf("certificateID(42) = %q, want %q", got, want)
	}

	// Same enrollment completed at a different instant yields a different ID.
	if certificateID(42, at.Add(time.Second)) == got {
		t.Error("Certificate IDs should embed the completion instant")
	}
}

func TestBuildEnrollmentResponse_CanReview(t *testing.T) {
	ratedAt := time.Now()

	tests := []struct {
		name       string
		enrollment *models.Enrollment
		userID     string
		want       bool
	}{
		{
			name:       "owner of completed enrollment",
			enrollment: &models.Enrollment{StudentID: "stu-1", Status: models.EnrollmentCompleted},
			userID:     "stu-1",
			want:       true,
		},
		{
			name:       "still active",
			enrollment: &models.Enrollment{StudentID: "stu-1", Status: models.EnrollmentActive},
			userID:     "stu-1",
			want:       false,
		},
		{
			name:       "already reviewed",
			enrollment: &models.Enrollment{StudentID: "stu-1", Status: models.EnrollmentCompleted, RatedAt: &ratedAt},
			userID:     "stu-1",
			want:       false,
		},
		{
			name:       "not the student",
			enrollment: &models.Enrollment{StudentID: "stu-1", Status: models.EnrollmentCompleted},
			userID:     "stu-2",
			want:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := buildEnrollmentResponse(tt.enrollment, tt.userID)
			if resp.CanReview != tt.want {
				t.Errorf("CanReview = %v, want %v", resp.CanReview, tt.want)
			}
		})
	}
}

func TestEnrollmentService_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("enrolls with price snapshot and lesson total", func(t *testing.T) {
		repo := newMockRepository()
		seedPublishedCourse(repo)
		svc, _ := newTestEnrollmentService(repo)

		resp, err := svc.Enroll(ctx, 4, "student-1")
		if err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
		if resp.Status != models.EnrollmentActive {
			t.Errorf("Expected active enrollment, got %s", resp.Status)
		}
		if resp.AmountPaid != 99 {
			t.Errorf("Expected amount snapshot 99, got %v", resp.AmountPaid)
		}
		if resp.TotalLessons != 8 {
			t.Errorf("Expected 8 total lessons, got %d", resp.TotalLessons)
		}
		if repo.course.enrollmentDeltas[4] != 1 {
			t.Errorf("Expected enrollment count +1, got %d", repo.course.enrollmentDeltas[4])
		}
	})

	t.Run("second active enrollment rejected", func(t *testing.T) {
		repo := newMockRepository()
		seedPublishedCourse(repo)
		svc, _ := newTestEnrollmentService(repo)

		if _, err := svc.Enroll(ctx, 4, "student-1"); err != nil {
			t.Fatalf("First enrollment failed: %v", err)
		}
		if _, err := svc.Enroll(ctx, 4, "student-1"); !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("Expected ErrAlreadyEnrolled, got %v", err)
		}
		if repo.course.enrollmentDeltas[4] != 1 {
			t.Errorf("Counter must not move on a rejected enrollment, got %d", repo.course.enrollmentDeltas[4])
		}
	})

	t.Run("unique index race maps to already enrolled", func(t *testing.T) {
		repo := newMockRepository()
		seedPublishedCourse(repo)
		repo.enrollment.createErr = gorm.ErrDuplicatedKey
		svc, _ := newTestEnrollmentService(repo)

		if _, err := svc.Enroll(ctx, 4, "student-1"); !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("Expected ErrAlreadyEnrolled, got %v", err)
		}
		if repo.course.enrollmentDeltas[4] != 0 {
			t.Error("Counter must not move when the insert loses the race")
		}
	})

	t.Run("unpublished course rejected", func(t *testing.T) {
		repo := newMockRepository()
		course := seedPublishedCourse(repo)
		course.Status = models.CourseDraft
		svc, _ := newTestEnrollmentService(repo)

		if _, err := svc.Enroll(ctx, 4, "student-1"); !errors.Is(err, ErrCourseNotPublished) {
			t.Errorf("Expected ErrCourseNotPublished, got %v", err)
		}
	})
}

func TestEnrollmentService_SubmitReview(t *testing.T) {
	ctx := context.Background()

	t.Run("valid review accepted and course rating recomputed", func(t *testing.T) {
		repo := newMockRepository()
		enrollment := repo.enrollment.add(&models.Enrollment{
			StudentID: "student-1",
			CourseID:  4,
			Status:    models.EnrollmentCompleted,
		})
		svc, rating := newTestEnrollmentService(repo)

		if err := svc.SubmitReview(ctx, enrollment.ID, &EnrollmentReviewRequest{Rating: 4}, "student-1"); err != nil {
			t.Fatalf("SubmitReview failed: %v", err)
		}

		stored := repo.enrollment.enrollments[enrollment.ID]
		if stored.Rating == nil || *stored.Rating != 4 {
			t.Errorf("Expected rating 4 to be stored, got %v", stored.Rating)
		}
		if len(rating.courseIDs) != 1 || rating.courseIDs[0] != 4 {
			t.Errorf("Expected course rating recompute for course 4, got %v", rating.courseIDs)
		}
	})

	t.Run("enrollment not completed", func(t *testing.T) {
		repo := newMockRepository()
		enrollment := repo.enrollment.add(&models.Enrollment{
			StudentID: "student-1",
			CourseID:  4,
			Status:    models.EnrollmentActive,
		})
		svc, _ := newTestEnrollmentService(repo)

		if err := svc.SubmitReview(ctx, enrollment.ID, &EnrollmentReviewRequest{Rating: 4}, "student-1"); !errors.Is(err, ErrEnrollmentNotCompleted) {
			t.Errorf("Expected ErrEnrollmentNotCompleted, got %v", err)
		}
	})

	t.Run("review only once", func(t *testing.T) {
		repo := newMockRepository()
		enrollment := repo.enrollment.add(&models.Enrollment{
			StudentID: "student-1",
			CourseID:  4,
			Status:    models.EnrollmentCompleted,
		})
		svc, _ := newTestEnrollmentService(repo)

		if err := svc.SubmitReview(ctx, enrollment.ID, &EnrollmentReviewRequest{Rating: 5}, "student-1"); err != nil {
			t.Fatalf("First review failed: %v", err)
		}
		if err := svc.SubmitReview(ctx, enrollment.ID, &EnrollmentReviewRequest{Rating: 1}, "student-1"); !errors.Is(err, ErrReviewAlreadyGiven) {
			t.Errorf("Expected ErrReviewAlreadyGiven, got %v", err)
		}
	})

	t.Run("only the student may review", func(t *testing.T) {
		repo := newMockRepository()
		enrollment := repo.enrollment.add(&models.Enrollment{
			StudentID: "student-1",
			CourseID:  4,
			Status:    models.EnrollmentCompleted,
		})
		svc, _ := newTestEnrollmentService(repo)

		err := svc.SubmitReview(ctx, enrollment.ID, &EnrollmentReviewRequest{Rating: 5}, "someone-else")

		var perm *PermissionError
		if !errors.As(err, &perm) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
	})
}

func TestEnrollmentService_GetByStudent_Ownership(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.enrollment.add(&models.Enrollment{StudentID: "student-1", CourseID: 4, Status: models.EnrollmentActive})
	repo.user.roles["admin-user"] = []models.UserRole{models.RoleAdmin}
	svc, _ := newTestEnrollmentService(repo)

	filters := repositories.EnrollmentFilters{Limit: 10}

	t.Run("student sees own enrollments", func(t *testing.T) {
		resp, err := svc.GetByStudent(ctx, "student-1", filters, "student-1")
		if err != nil {
			t.Fatalf("GetByStudent failed: %v", err)
		}
		if len(resp.Enrollments) != 1 {
			t.Errorf("Expected 1 enrollment, got %d", len(resp.Enrollments))
		}
	})

	t.Run("admin sees any student", func(t *testing.T) {
		if _, err := svc.GetByStudent(ctx, "student-1", filters, "admin-user"); err != nil {
			t.Fatalf("Admin access failed: %v", err)
		}
	})

	t.Run("other user denied", func(t *testing.T) {
		_, err := svc.GetByStudent(ctx, "student-1", filters, "student-2")

		var perm *PermissionError
		if !errors.As(err, &perm) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
	})
}

func TestBuildEnrollmentListResponse_Pagination(t *testing.T) {
	enrollments := make([]*models.Enrollment, 10)
	for i := range enrollments {
		enrollments[i] = &models.Enrollment{ID: uint(i + 1), StudentID: "stu-1"}
	}

	filters := repositories.EnrollmentFilters{Limit: 10, Offset: 0}
	resp := buildEnrollmentListResponse(enrollments, 25, filters, "stu-1")

	if resp.Pagination.CurrentPage != 1 {
		t.Errorf("Expected page 1, got %d", resp.Pagination.CurrentPage)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", resp.Pagination.TotalPages)
	}
	if !resp.Pagination.HasNext {
		t.Error("Expected has_next on the first of three pages")
	}
	if resp.Pagination.HasPrev {
		t.Error("Did not expect has_prev on the first page")
	}
}
