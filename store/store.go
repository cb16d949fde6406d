package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meinhoongagan/home-services/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoProvider        = errors.New("no provider found for this service")
)

// Store is the persistence boundary used by the HTTP layer.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	SetUserRole(ctx context.Context, id uint, role models.Role) (*models.User, error)

	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)

	AddService(ctx context.Context, userID uint, in AddServiceInput) (*models.ServiceProviderService, error)
	ListProviderServices(ctx context.Context, userID uint) ([]ProviderServiceView, error)
	GetProviderService(ctx context.Context, userID, providerServiceID uint) (*ProviderServiceView, error)
	EditProviderService(ctx context.Context, userID, providerServiceID uint, in EditServiceInput) (*ProviderServiceView, error)
	DeleteProviderService(ctx context.Context, userID, providerServiceID uint) error

	CurrentJobs(ctx context.Context, userID uint) ([]JobView, error)
	CompletedJobs(ctx context.Context, userID uint) ([]JobView, error)
	UpdateBookingStatus(ctx context.Context, userID uint, bookingID uuid.UUID, status models.BookingStatus) (*models.Booking, error)

	Catalog(ctx context.Context) ([]CatalogEntry, error)
	ServiceOfferings(ctx context.Context, serviceID uint) ([]CatalogEntry, error)

	CreateBooking(ctx context.Context, takerID uint, in BookingInput) (*models.Booking, error)
	CurrentBookings(ctx context.Context, takerID uint) ([]BookingView, error)
	ServiceHistory(ctx context.Context, takerID uint) ([]BookingView, error)
	CancelBooking(ctx context.Context, takerID uint, bookingID uuid.UUID) (*models.Booking, error)

	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error

	BookingNotice(ctx context.Context, bookingID uuid.UUID) (*BookingNotice, error)
	NoticesDueOn(ctx context.Context, day time.Time, status models.BookingStatus) ([]BookingNotice, error)
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// AddServiceInput is a provider's request to offer a service.
type AddServiceInput struct {
	ServiceName  string              `json:"service_name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	CategoryID   uint                `json:"category_id"`
	City         string              `json:"city"`
	Availability models.Availability `json:"availability"`
}

func (in *AddServiceInput) Validate() error {
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	in.Description = strings.TrimSpace(in.Description)
	in.City = strings.TrimSpace(in.City)
	if in.ServiceName == "" || in.Description == "" || in.City == "" || in.CategoryID == 0 || in.Availability == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !in.Availability.Valid() {
		return fmt.Errorf("%w: unknown availability %q", ErrValidation, in.Availability)
	}
	return nil
}

// EditServiceInput updates a listing's service content and the provider's
// city and availability.
type EditServiceInput struct {
	ServiceName  string              `json:"service_name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	City         string              `json:"city"`
	Availability models.Availability `json:"availability"`
}

func (in *EditServiceInput) Validate() error {
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	in.Description = strings.TrimSpace(in.Description)
	in.City = strings.TrimSpace(in.City)
	if in.ServiceName == "" || in.Description == "" || in.City == "" || in.Availability == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !in.Availability.Valid() {
		return fmt.Errorf("%w: unknown availability %q", ErrValidation, in.Availability)
	}
	return nil
}

// BookingInput is a taker's booking request. ProviderID is optional; when
// zero the first provider linked to the service is used.
type BookingInput struct {
	ServiceID     uint
	ProviderID    uint
	RequestedDate time.Time
}

// ProviderServiceView is one listing as shown on the provider dashboard.
type ProviderServiceView struct {
	ProviderServiceID  uint                `json:"provider_service_id"`
	ServiceID          uint                `json:"service_id"`
	ServiceName        string              `json:"service_name"`
	Description        string              `json:"description"`
	Price              decimal.Decimal     `json:"price"`
	CategoryID         uint                `json:"category_id"`
	CategoryName       string              `json:"category_name"`
	City               string              `json:"city"`
	Availability       models.Availability `json:"availability"`
	Rating             decimal.Decimal     `json:"rating"`
	TotalJobsCompleted int                 `json:"total_jobs_completed"`
}

// CatalogEntry is one (service, provider) offering.
type CatalogEntry struct {
	ServiceID          uint                `json:"service_id"`
	ServiceName        string              `json:"service_name"`
	Description        string              `json:"description"`
	Price              decimal.Decimal     `json:"price"`
	CategoryID         uint                `json:"category_id"`
	CategoryName       string              `json:"category_name"`
	ProviderID         uint                `json:"provider_id"`
	ProviderName       string              `json:"provider_name"`
	City               string              `json:"city"`
	Availability       models.Availability `json:"availability"`
	Rating             decimal.Decimal     `json:"rating"`
	TotalJobsCompleted int                 `json:"total_jobs_completed"`
}

// JobView is a booking as seen by the provider.
type JobView struct {
	BookingID     uuid.UUID            `json:"booking_id"`
	UserID        uint                 `json:"user_id"`
	UserName      string               `json:"user_name"`
	UserAddress   string               `json:"user_address"`
	ServiceID     uint                 `json:"service_id"`
	ServiceName   string               `json:"service_name"`
	Status        models.BookingStatus `json:"status"`
	RequestedDate time.Time            `json:"requested_date"`
	BookingTime   time.Time            `json:"booking_time"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// BookingView is a booking as seen by the taker.
type BookingView struct {
	BookingID     uuid.UUID            `json:"booking_id"`
	ServiceID     uint                 `json:"service_id"`
	ServiceName   string               `json:"service_name"`
	ProviderID    uint                 `json:"provider_id"`
	ProviderName  string               `json:"provider_name"`
	RequestedDate time.Time            `json:"requested_date"`
	BookingTime   time.Time            `json:"booking_time"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// BookingNotice carries what an email about a booking needs.
type BookingNotice struct {
	BookingID     uuid.UUID
	ServiceName   string
	TakerName     string
	TakerEmail    string
	TakerAddress  string
	ProviderName  string
	ProviderEmail string
	RequestedDate time.Time
	Status        models.BookingStatus
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
