package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is a bookable offering of a consultant. Deletion is soft via
// IsActive so historical bookings keep their reference.
type Service struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	ConsultantID uint    `json:"consultant_id" gorm:"not null;index"`
	CategoryID   *uint   `json:"category_id" gorm:"index"`
	Title        string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description  *string `json:"description" gorm:"type:text" validate:"omitempty,max=5000"`
	Price        float64 `json:"price" gorm:"not null" validate:"required,min=0"`
	Duration     int     `json:"duration" gorm:"not null" validate:"required,min=15,max=480"` // minutes
	IsActive     bool    `json:"is_active" gorm:"default:true;index"`

	// Availability maps weekday name ("monday".."sunday") to the slot labels
	// offered that day, e.g. {"monday": ["09:00", "10:00"]}.
	Availability datatypes.JSON `json:"availability" gorm:"type:jsonb"`

	// Denormalized aggregates
	RatingAverage float64 `json:"rating_average" gorm:"default:0"`
	RatingCount   int     `json:"rating_count" gorm:"default:0"`
	TotalBookings int     `json:"total_bookings" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Consultant Consultant `json:"consultant" gorm:"foreignKey:ConsultantID"`
	Category   *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// SlotsForWeekday decodes the availability blob and returns the slot labels
// offered on the given weekday (lowercase name). Missing or malformed
// availability yields no slots.
func (s *Service) SlotsForWeekday(weekday string) []string {
	if len(s.Availability) == 0 {
		return nil
	}
	var byDay map[string][]string
	if err := json.Unmarshal(s.Availability, &byDay); err != nil {
		return nil
	}
	return byDay[weekday]
}

func (Service) TableName() string {
	return "services"
}
