package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Consultant is the bookable profile linked 1:1 to a User. It is never
// hard-deleted; deactivation flips IsActive.
type Consultant struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:255"`

	Headline   string         `json:"headline" gorm:"size:200" validate:"omitempty,max=200"`
	Bio        *string        `json:"bio" gorm:"type:text" validate:"omitempty,max=2000"`
	Expertise  datatypes.JSON `json:"expertise" gorm:"type:jsonb"` // list of tags
	HourlyRate float64        `json:"hourly_rate" gorm:"not null;default:0"`
	CategoryID *uint          `json:"category_id" gorm:"index"`

	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"default:pending;index"`
	ApprovalNote   *string        `json:"approval_note" gorm:"type:text"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	ApprovedBy     *string        `json:"approved_by" gorm:"size:255"`
	IsActive       bool           `json:"is_active" gorm:"default:true;index"`

	// Denormalized aggregates, maintained by the rating aggregator and the
	// booking service counter updates.
	Rating        float64 `json:"rating" gorm:"default:0"`
	TotalRatings  int     `json:"total_ratings" gorm:"default:0"`
	TotalBookings int     `json:"total_bookings" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User     User      `json:"user" gorm:"foreignKey:UserID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Services []Service `json:"services,omitempty" gorm:"foreignKey:ConsultantID"`
}

// Bookable reports whether new bookings may target this consultant.
func (c *Consultant) Bookable() bool {
	return c.IsActive && c.ApprovalStatus == ApprovalApproved
}

func (Consultant) TableName() string {
	return "consultants"
}
