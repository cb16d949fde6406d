package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Service is shared by every provider offering the same name in the same
// category. Description and price belong to whoever created it first.
type Service struct {
	ID          uint            `json:"service_id" gorm:"primaryKey"`
	ServiceName string          `json:"service_name" gorm:"type:varchar(255);not null;index:idx_service_name_category"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index:idx_service_name_category"`
	Category    ServiceCategory `json:"-" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ServiceProviderService links a provider to a service it offers.
type ServiceProviderService struct {
	ID         uint            `json:"provider_service_id" gorm:"primaryKey"`
	ProviderID uint            `json:"provider_id" gorm:"not null;index"`
	Provider   ServiceProvider `json:"-" gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE"`
	ServiceID  uint            `json:"service_id" gorm:"not null;index"`
	Service    Service         `json:"-" gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `json:"created_at"`
}
