package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/models"
)

const (
	listingSelect = `sps.id AS provider_service_id, s.id AS service_id, s.service_name, s.description, s.price,
		s.category_id, sc.category_name, sp.city, sp.availability, sp.rating, sp.total_jobs_completed`
	catalogSelect = `s.id AS service_id, s.service_name, s.description, s.price, s.category_id, sc.category_name,
		sp.id AS provider_id, u.name AS provider_name, sp.city, sp.availability, sp.rating, sp.total_jobs_completed`
	jobSelect = `b.id AS booking_id, b.user_id, u.name AS user_name, u.address AS user_address,
		b.service_id, s.service_name, b.status, b.requested_date, b.booking_time, b.updated_at`
	bookingSelect = `b.id AS booking_id, b.service_id, s.service_name, b.provider_id, u.name AS provider_name,
		b.requested_date, b.booking_time, b.status, b.payment_status, b.created_at, b.updated_at`
	noticeSelect = `b.id AS booking_id, s.service_name, t.name AS taker_name, t.email AS taker_email,
		t.address AS taker_address, pu.name AS provider_name, pu.email AS provider_email, b.requested_date, b.status`
)

// GormStore implements Store on Postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection. The connection should be opened
// with TranslateError so unique violations surface as ErrConflict.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *GormStore) SetUserRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return nil, translate("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var out []models.ServiceCategory
	if err := s.db.WithContext(ctx).Order("category_name ASC").Find(&out).Error; err != nil {
		return nil, translate("list categories", err)
	}
	return nonNil(out), nil
}

// AddService resolves the caller's provider row and the shared service row,
// creating either when absent, and links them. Existing service content is
// never overwritten; the provider's city and availability always are.
func (s *GormStore) AddService(ctx context.Context, userID uint, in AddServiceInput) (*models.ServiceProviderService, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var link models.ServiceProviderService
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.ServiceCategory
		if err := tx.First(&category, in.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: category %d", ErrNotFound, in.CategoryID)
			}
			return err
		}

		var provider models.ServiceProvider
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&provider).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			provider = models.ServiceProvider{UserID: userID, City: in.City, Availability: in.Availability}
			if err := tx.Omit(clause.Associations).Create(&provider).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&provider).Updates(map[string]any{
				"city":         in.City,
				"availability": string(in.Availability),
			}).Error; err != nil {
				return err
			}
		}

		var service models.Service
		err = tx.Where("service_name = ? AND category_id = ?", in.ServiceName, in.CategoryID).
			Order("id ASC").First(&service).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			service = models.Service{
				ServiceName: in.ServiceName,
				Description: in.Description,
				Price:       in.Price,
				CategoryID:  in.CategoryID,
			}
			if err := tx.Omit(clause.Associations).Create(&service).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		link = models.ServiceProviderService{ProviderID: provider.ID, ServiceID: service.ID}
		return tx.Omit(clause.Associations).Create(&link).Error
	})
	if err != nil {
		return nil, translate("add service", err)
	}
	return &link, nil
}

func (s *GormStore) listings(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Table("service_provider_services AS sps").
		Select(listingSelect).
		Joins("JOIN service_providers sp ON sp.id = sps.provider_id").
		Joins("JOIN services s ON s.id = sps.service_id").
		Joins("JOIN service_categories sc ON sc.id = s.category_id").
		Where("sp.user_id = ?", userID)
}

func (s *GormStore) ListProviderServices(ctx context.Context, userID uint) ([]ProviderServiceView, error) {
	var out []ProviderServiceView
	if err := s.listings(s.db.WithContext(ctx), userID).Order("sps.id ASC").Scan(&out).Error; err != nil {
		return nil, translate("list provider services", err)
	}
	return nonNil(out), nil
}

func (s *GormStore) GetProviderService(ctx context.Context, userID, providerServiceID uint) (*ProviderServiceView, error) {
	return s.getListing(s.db.WithContext(ctx), userID, providerServiceID)
}

func (s *GormStore) getListing(tx *gorm.DB, userID, providerServiceID uint) (*ProviderServiceView, error) {
	var view ProviderServiceView
	res := s.listings(tx, userID).Where("sps.id = ?", providerServiceID).Limit(1).Scan(&view)
	if res.Error != nil {
		return nil, translate("get provider service", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &view, nil
}

// EditProviderService updates the shared service content and the provider's
// city and availability. Only the owning provider may edit a listing.
func (s *GormStore) EditProviderService(ctx context.Context, userID, providerServiceID uint, in EditServiceInput) (*ProviderServiceView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var view *ProviderServiceView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.getListing(tx, userID, providerServiceID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Service{}).Where("id = ?", current.ServiceID).Updates(map[string]any{
			"service_name": in.ServiceName,
			"description":  in.Description,
			"price":        in.Price,
			"updated_at":   time.Now(),
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ServiceProvider{}).Where("user_id = ?", userID).Updates(map[string]any{
			"city":         in.City,
			"availability": string(in.Availability),
			"updated_at":   time.Now(),
		}).Error; err != nil {
			return err
		}
		view, err = s.getListing(tx, userID, providerServiceID)
		return err
	})
	if err != nil {
		return nil, translate("edit provider service", err)
	}
	return view, nil
}

func (s *GormStore) DeleteProviderService(ctx context.Context, userID, providerServiceID uint) error {
	owned := s.db.Model(&models.ServiceProvider{}).Select("id").Where("user_id = ?", userID)
	res := s.db.WithContext(ctx).
		Where("id = ? AND provider_id IN (?)", providerServiceID, owned).
		Delete(&models.ServiceProviderService{})
	if res.Error != nil {
		return translate("delete provider service", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) jobs(ctx context.Context, userID uint, statuses []models.BookingStatus, order string) ([]JobView, error) {
	var out []JobView
	err := s.db.WithContext(ctx).Table("bookings AS b").
		Select(jobSelect).
		Joins("JOIN users u ON u.id = b.user_id").
		Joins("JOIN services s ON s.id = b.service_id").
		Joins("JOIN service_providers sp ON sp.id = b.provider_id").
		Where("sp.user_id = ? AND b.status IN ?", userID, statusStrings(statuses)).
		Order(order).
		Scan(&out).Error
	if err != nil {
		return nil, translate("list jobs", err)
	}
	return nonNil(out), nil
}

func (s *GormStore) CurrentJobs(ctx context.Context, userID uint) ([]JobView, error) {
	return s.jobs(ctx, userID, models.ActiveStatuses, "b.requested_date ASC, b.booking_time ASC")
}

func (s *GormStore) CompletedJobs(ctx context.Context, userID uint) ([]JobView, error) {
	return s.jobs(ctx, userID, []models.BookingStatus{models.StatusCompleted}, "b.updated_at DESC")
}

// UpdateBookingStatus moves one of the provider's bookings along the status
// graph. Completing a job bumps the provider's completed-job counter in the
// same transaction.
func (s *GormStore) UpdateBookingStatus(ctx context.Context, userID uint, bookingID uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var provider models.ServiceProvider
		if err := tx.Where("user_id = ?", userID).First(&provider).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND provider_id = ?", bookingID, provider.ID).
			First(&booking).Error; err != nil {
			return err
		}
		if !booking.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, booking.Status, status)
		}
		if err := tx.Model(&booking).Update("status", string(status)).Error; err != nil {
			return err
		}
		booking.Status = status
		if status == models.StatusCompleted {
			return tx.Model(&models.ServiceProvider{}).Where("id = ?", provider.ID).
				UpdateColumn("total_jobs_completed", gorm.Expr("total_jobs_completed + 1")).Error
		}
		return nil
	})
	if err != nil {
		return nil, translate("update booking status", err)
	}
	return &booking, nil
}

func (s *GormStore) offerings(tx *gorm.DB) *gorm.DB {
	return tx.Table("services AS s").
		Select(catalogSelect).
		Joins("JOIN service_categories sc ON sc.id = s.category_id").
		Joins("JOIN service_provider_services sps ON sps.service_id = s.id").
		Joins("JOIN service_providers sp ON sp.id = sps.provider_id").
		Joins("JOIN users u ON u.id = sp.user_id")
}

func (s *GormStore) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var out []CatalogEntry
	if err := s.offerings(s.db.WithContext(ctx)).Order("s.service_name ASC, sps.id ASC").Scan(&out).Error; err != nil {
		return nil, translate("catalog", err)
	}
	return nonNil(out), nil
}

func (s *GormStore) ServiceOfferings(ctx context.Context, serviceID uint) ([]CatalogEntry, error) {
	var out []CatalogEntry
	err := s.offerings(s.db.WithContext(ctx)).Where("s.id = ?", serviceID).Order("sps.id ASC").Scan(&out).Error
	if err != nil {
		return nil, translate("service offerings", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// CreateBooking books a service with the requested provider, or with the
// first provider linked to it.
func (s *GormStore) CreateBooking(ctx context.Context, takerID uint, in BookingInput) (*models.Booking, error) {
	if in.ServiceID == 0 || in.RequestedDate.IsZero() {
		return nil, fmt.Errorf("%w: service_id and requested_date are required", ErrValidation)
	}
	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("service_id = ?", in.ServiceID)
		if in.ProviderID != 0 {
			q = q.Where("provider_id = ?", in.ProviderID)
		}
		var link models.ServiceProviderService
		if err := q.Order("id ASC").First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoProvider
			}
			return err
		}
		booking = models.Booking{
			UserID:        takerID,
			ServiceID:     in.ServiceID,
			ProviderID:    link.ProviderID,
			RequestedDate: dayOf(in.RequestedDate),
		}
		return tx.Omit(clause.Associations).Create(&booking).Error
	})
	if err != nil {
		return nil, translate("create booking", err)
	}
	return &booking, nil
}

func (s *GormStore) takerBookings(ctx context.Context, takerID uint, statuses []models.BookingStatus, order string) ([]BookingView, error) {
	var out []BookingView
	err := s.db.WithContext(ctx).Table("bookings AS b").
		Select(bookingSelect).
		Joins("JOIN services s ON s.id = b.service_id").
		Joins("JOIN service_providers sp ON sp.id = b.provider_id").
		Joins("JOIN users u ON u.id = sp.user_id").
		Where("b.user_id = ? AND b.status IN ?", takerID, statusStrings(statuses)).
		Order(order).
		Scan(&out).Error
	if err != nil {
		return nil, translate("list bookings", err)
	}
	return nonNil(out), nil
}

func (s *GormStore) CurrentBookings(ctx context.Context, takerID uint) ([]BookingView, error) {
	return s.takerBookings(ctx, takerID, models.ActiveStatuses, "b.requested_date ASC, b.booking_time DESC")
}

func (s *GormStore) ServiceHistory(ctx context.Context, takerID uint) ([]BookingView, error) {
	return s.takerBookings(ctx, takerID, []models.BookingStatus{models.StatusCompleted}, "b.updated_at DESC")
}

// CancelBooking deletes the taker's booking while it is still pending.
// Any other case reports ErrNotFound and leaves storage untouched.
func (s *GormStore) CancelBooking(ctx context.Context, takerID uint, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	res := s.db.WithContext(ctx).Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ? AND status = ?", bookingID, takerID, string(models.StatusPending)).
		Delete(&booking)
	if res.Error != nil {
		return nil, translate("cancel booking", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &booking, nil
}

func (s *GormStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return translate("create contact message", err)
	}
	return nil
}

func (s *GormStore) notices(tx *gorm.DB) *gorm.DB {
	return tx.Table("bookings AS b").
		Select(noticeSelect).
		Joins("JOIN services s ON s.id = b.service_id").
		Joins("JOIN users t ON t.id = b.user_id").
		Joins("JOIN service_providers sp ON sp.id = b.provider_id").
		Joins("JOIN users pu ON pu.id = sp.user_id")
}

func (s *GormStore) BookingNotice(ctx context.Context, bookingID uuid.UUID) (*BookingNotice, error) {
	var notice BookingNotice
	res := s.notices(s.db.WithContext(ctx)).Where("b.id = ?", bookingID).Limit(1).Scan(&notice)
	if res.Error != nil {
		return nil, translate("booking notice", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &notice, nil
}

func (s *GormStore) NoticesDueOn(ctx context.Context, day time.Time, status models.BookingStatus) ([]BookingNotice, error) {
	var out []BookingNotice
	err := s.notices(s.db.WithContext(ctx)).
		Where("b.requested_date = ? AND b.status = ?", day.Format(models.DateLayout), string(status)).
		Order("b.booking_time ASC").
		Scan(&out).Error
	if err != nil {
		return nil, translate("notices due", err)
	}
	return nonNil(out), nil
}

// translate maps gorm errors onto the store's sentinels. Anything it cannot
// classify is logged and wrapped with the failing operation.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNoProvider):
		return err
	}
	logger.Log.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func statusStrings(statuses []models.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
