package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	InstructorID string  `json:"instructor_id" gorm:"not null;index;size:255"`
	CategoryID   *uint   `json:"category_id" gorm:"index"`
	Title        string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description  *string `json:"description" gorm:"type:text" validate:"omitempty,max=5000"`
	Price        float64 `json:"price" gorm:"not null;default:0"`

	Level    CourseLevel `json:"level" gorm:"size:20;default:beginner" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language string      `json:"language" gorm:"size:10;default:en"`

	// IsPublished mirrors Status == published so listing queries can filter on
	// a plain boolean index.
	Status      CourseStatus `json:"status" gorm:"default:draft;index"`
	IsPublished bool         `json:"is_published" gorm:"default:false;index"`
	PublishedAt *time.Time   `json:"published_at"`

	// Denormalized aggregates
	EnrollmentCount int     `json:"enrollment_count" gorm:"default:0"`
	RatingAverage   float64 `json:"rating_average" gorm:"default:0"`
	RatingCount     int     `json:"rating_count" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Instructor User           `json:"instructor" gorm:"foreignKey:InstructorID"`
	Category   *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Lessons    []CourseLesson `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`

	// Computed (not stored)
	LessonCount int `json:"lesson_count" gorm:"-"`
}

type CourseLesson struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	CourseID uint    `json:"course_id" gorm:"not null;index"`
	Title    string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Order    int     `json:"order" gorm:"not null;column:lesson_order"`
	Duration int     `json:"duration"` // minutes
	Content  *string `json:"content" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (CourseLesson) TableName() string {
	return "course_lessons"
}
