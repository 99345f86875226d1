package models

import (
	"time"

	"gorm.io/gorm"
)

type CategoryKind string

const (
	CategoryCourse     CategoryKind = "course"
	CategoryService    CategoryKind = "service"
	CategoryConsultant CategoryKind = "consultant"
)

type Category struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Slug        string       `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	Kind        CategoryKind `json:"kind" gorm:"not null;size:20;index" validate:"required,oneof=course service consultant"`
	Description *string      `json:"description" gorm:"size:500" validate:"omitempty,max=500"`
	ParentID    *uint        `json:"parent_id" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

func (Category) TableName() string {
	return "categories"
}
