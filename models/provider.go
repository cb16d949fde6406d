package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOffline   Availability = "offline"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline:
		return true
	}
	return false
}

// ServiceProvider is created the first time a user lists a service.
type ServiceProvider struct {
	ID                 uint            `json:"provider_id" gorm:"primaryKey"`
	UserID             uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	User               User            `json:"-" gorm:"foreignKey:UserID"`
	City               string          `json:"city" gorm:"type:varchar(100)"`
	Availability       Availability    `json:"availability" gorm:"type:varchar(16);not null;default:available"`
	Rating             decimal.Decimal `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	TotalJobsCompleted int             `json:"total_jobs_completed" gorm:"not null;default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
