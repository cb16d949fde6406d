package models

import (
	"time"
)

type User struct {
	ID           uint      `json:"user_id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone_number" gorm:"column:phone_number;type:varchar(32)"`
	Address      string    `json:"address"`
	City         string    `json:"city" gorm:"type:varchar(100)"`
	Role         *Role     `json:"role" gorm:"type:varchar(16)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the stored role equals r.
func (u *User) HasRole(r Role) bool {
	return u != nil && u.Role != nil && *u.Role == r
}
