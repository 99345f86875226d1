package models

import (
	"time"

	"gorm.io/gorm"
)

type PartnerTier string

const (
	TierStandard PartnerTier = "standard"
	TierPremium  PartnerTier = "premium"
)

// Partner is a B2B relationship record managed from the admin surface; it
// carries no booking logic.
type Partner struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	ContactEmail string      `json:"contact_email" gorm:"not null;size:255" validate:"required,email"`
	ContactName  *string     `json:"contact_name" gorm:"size:100"`
	Website      *string     `json:"website" gorm:"size:500" validate:"omitempty,url"`
	Tier         PartnerTier `json:"tier" gorm:"size:20;default:standard" validate:"omitempty,oneof=standard premium"`
	IsActive     bool        `json:"is_active" gorm:"default:true;index"`
	Notes        *string     `json:"notes" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Partner) TableName() string {
	return "partners"
}
