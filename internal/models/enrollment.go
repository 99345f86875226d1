package models

import (
	"time"

	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentPaused    EnrollmentStatus = "paused"
	EnrollmentExpired   EnrollmentStatus = "expired"
)

// IsTerminal reports whether the enrollment can no longer change status.
func (s EnrollmentStatus) IsTerminal() bool {
	switch s {
	case EnrollmentCompleted, EnrollmentCancelled, EnrollmentExpired:
		return true
	}
	return false
}

// Enrollment links a student to a course. At most one active-or-completed
// enrollment may exist per (student, course) pair; a partial unique index
// backs that invariant at the store.
type Enrollment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`
	CourseID  uint   `json:"course_id" gorm:"not null;index"`

	Status EnrollmentStatus `json:"status" gorm:"default:active;index"`

	// Progress
	ProgressOverall  float64 `json:"progress_overall" gorm:"default:0"` // 0-100
	CompletedLessons int     `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int     `json:"total_lessons" gorm:"default:0"`

	// Payment snapshot at enrollment time.
	AmountPaid float64 `json:"amount_paid" gorm:"not null;default:0"`

	CompletedAt   *time.Time `json:"completed_at"`
	CertificateID *string    `json:"certificate_id" gorm:"size:64"`

	// Review: settable once, only after completion.
	Rating   *int       `json:"rating"`
	Review   *string    `json:"review" gorm:"type:text"`
	RatedAt  *time.Time `json:"rated_at"`
	PausedAt *time.Time `json:"paused_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Student User   `json:"student" gorm:"foreignKey:StudentID"`
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
}

// ReviewProvided reports whether the student already left a review.
func (e *Enrollment) ReviewProvided() bool {
	return e.RatedAt != nil
}

// LessonProgress records per-lesson completion inside an enrollment.
type LessonProgress struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	LessonID     uint `json:"lesson_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	Done         bool `json:"done" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
