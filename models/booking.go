package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// ActiveStatuses are the statuses shown as current jobs and bookings.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// DateLayout is the wire format of requested dates.
const DateLayout = "2006-01-02"

// Booking is one taker request for a service on a day. A taker holds at most
// one pending or confirmed booking per service and day.
type Booking struct {
	ID            uuid.UUID       `json:"booking_id" gorm:"type:uuid;primaryKey"`
	UserID        uint            `json:"user_id" gorm:"not null;index;uniqueIndex:idx_booking_active_taker_service_date,where:status <> 'cancelled' AND status <> 'completed'"`
	User          User            `json:"-" gorm:"foreignKey:UserID"`
	ServiceID     uint            `json:"service_id" gorm:"not null;uniqueIndex:idx_booking_active_taker_service_date"`
	Service       Service         `json:"-" gorm:"foreignKey:ServiceID"`
	ProviderID    uint            `json:"provider_id" gorm:"not null;index"`
	Provider      ServiceProvider `json:"-" gorm:"foreignKey:ProviderID"`
	RequestedDate time.Time       `json:"requested_date" gorm:"type:date;not null;uniqueIndex:idx_booking_active_taker_service_date"`
	BookingTime   time.Time       `json:"booking_time" gorm:"not null"`
	Status        BookingStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PaymentUnpaid
	}
	if b.BookingTime.IsZero() {
		b.BookingTime = time.Now()
	}
	return nil
}

// Valid reports whether s is one of the four booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a provider may move a booking from s to next.
// completed and cancelled are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// ParseRequestedDate accepts YYYY-MM-DD or RFC3339 and truncates to the day.
func ParseRequestedDate(v string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
