package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meinhoongagan/home-services/models"
)

// MemoryStore implements Store in process memory. It backs STORE=memory and
// the HTTP tests. Every operation holds the lock for its full duration, so
// multi-step writes are atomic.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[uint]models.User
	categories map[uint]models.ServiceCategory
	services   map[uint]models.Service
	providers  map[uint]models.ServiceProvider
	links      map[uint]models.ServiceProviderService
	bookings   map[uuid.UUID]models.Booking
	contacts   []models.ContactMessage

	nextUserID     uint
	nextServiceID  uint
	nextProviderID uint
	nextLinkID     uint
	nextContactID  uint

	now func() time.Time
}

// NewMemoryStore returns an empty store seeded with the default categories.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:      make(map[uint]models.User),
		categories: make(map[uint]models.ServiceCategory),
		services:   make(map[uint]models.Service),
		providers:  make(map[uint]models.ServiceProvider),
		links:      make(map[uint]models.ServiceProviderService),
		bookings:   make(map[uuid.UUID]models.Booking),
		now:        time.Now,
	}
	for i, name := range models.DefaultCategories {
		id := uint(i + 1)
		s.categories[id] = models.ServiceCategory{ID: id, CategoryName: name}
	}
	return s
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = normalizeEmail(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrConflict
		}
	}
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) SetUserRole(_ context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	r := role
	u.Role = &r
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]models.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ServiceCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

func (s *MemoryStore) AddService(_ context.Context, userID uint, in AddServiceInput) (*models.ServiceProviderService, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[in.CategoryID]; !ok {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, in.CategoryID)
	}
	now := s.now()

	provider, ok := s.providerByUser(userID)
	if !ok {
		s.nextProviderID++
		provider = models.ServiceProvider{
			ID:        s.nextProviderID,
			UserID:    userID,
			Rating:    decimal.Zero,
			CreatedAt: now,
		}
	}
	provider.City = in.City
	provider.Availability = in.Availability
	provider.UpdatedAt = now
	s.providers[provider.ID] = provider

	service, ok := s.serviceByNameCategory(in.ServiceName, in.CategoryID)
	if !ok {
		s.nextServiceID++
		service = models.Service{
			ID:          s.nextServiceID,
			ServiceName: in.ServiceName,
			Description: in.Description,
			Price:       in.Price,
			CategoryID:  in.CategoryID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.services[service.ID] = service
	}

	s.nextLinkID++
	link := models.ServiceProviderService{
		ID:         s.nextLinkID,
		ProviderID: provider.ID,
		ServiceID:  service.ID,
		CreatedAt:  now,
	}
	s.links[link.ID] = link
	return &link, nil
}

func (s *MemoryStore) ListProviderServices(_ context.Context, userID uint) ([]ProviderServiceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []ProviderServiceView{}
	provider, ok := s.providerByUser(userID)
	if !ok {
		return out, nil
	}
	for _, link := range s.sortedLinks() {
		if link.ProviderID == provider.ID {
			out = append(out, s.listingView(link, provider))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetProviderService(_ context.Context, userID, providerServiceID uint) (*ProviderServiceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, provider, err := s.ownedLink(userID, providerServiceID)
	if err != nil {
		return nil, err
	}
	view := s.listingView(link, provider)
	return &view, nil
}

func (s *MemoryStore) EditProviderService(_ context.Context, userID, providerServiceID uint, in EditServiceInput) (*ProviderServiceView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	link, provider, err := s.ownedLink(userID, providerServiceID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	service := s.services[link.ServiceID]
	service.ServiceName = in.ServiceName
	service.Description = in.Description
	service.Price = in.Price
	service.UpdatedAt = now
	s.services[service.ID] = service

	provider.City = in.City
	provider.Availability = in.Availability
	provider.UpdatedAt = now
	s.providers[provider.ID] = provider

	view := s.listingView(link, provider)
	return &view, nil
}

func (s *MemoryStore) DeleteProviderService(_ context.Context, userID, providerServiceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, _, err := s.ownedLink(userID, providerServiceID)
	if err != nil {
		return err
	}
	delete(s.links, link.ID)
	return nil
}

func (s *MemoryStore) CurrentJobs(_ context.Context, userID uint) ([]JobView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.jobs(userID, models.ActiveStatuses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RequestedDate.Equal(out[j].RequestedDate) {
			return out[i].RequestedDate.Before(out[j].RequestedDate)
		}
		return out[i].BookingTime.Before(out[j].BookingTime)
	})
	return out, nil
}

func (s *MemoryStore) CompletedJobs(_ context.Context, userID uint) ([]JobView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.jobs(userID, []models.BookingStatus{models.StatusCompleted})
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateBookingStatus(_ context.Context, userID uint, bookingID uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, ok := s.providerByUser(userID)
	if !ok {
		return nil, ErrNotFound
	}
	booking, ok := s.bookings[bookingID]
	if !ok || booking.ProviderID != provider.ID {
		return nil, ErrNotFound
	}
	if !booking.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, booking.Status, status)
	}
	booking.Status = status
	booking.UpdatedAt = s.now()
	s.bookings[booking.ID] = booking
	if status == models.StatusCompleted {
		provider.TotalJobsCompleted++
		s.providers[provider.ID] = provider
	}
	return &booking, nil
}

func (s *MemoryStore) Catalog(_ context.Context) ([]CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []CatalogEntry{}
	for _, link := range s.sortedLinks() {
		out = append(out, s.catalogEntry(link))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out, nil
}

func (s *MemoryStore) ServiceOfferings(_ context.Context, serviceID uint) ([]CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CatalogEntry
	for _, link := range s.sortedLinks() {
		if link.ServiceID == serviceID {
			out = append(out, s.catalogEntry(link))
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *MemoryStore) CreateBooking(_ context.Context, takerID uint, in BookingInput) (*models.Booking, error) {
	if in.ServiceID == 0 || in.RequestedDate.IsZero() {
		return nil, fmt.Errorf("%w: service_id and requested_date are required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var providerID uint
	for _, link := range s.sortedLinks() {
		if link.ServiceID == in.ServiceID && (in.ProviderID == 0 || link.ProviderID == in.ProviderID) {
			providerID = link.ProviderID
			break
		}
	}
	if providerID == 0 {
		return nil, ErrNoProvider
	}

	day := dayOf(in.RequestedDate)
	for _, b := range s.bookings {
		if b.UserID == takerID && b.ServiceID == in.ServiceID && b.RequestedDate.Equal(day) &&
			hasStatus(models.ActiveStatuses, b.Status) {
			return nil, ErrConflict
		}
	}

	now := s.now()
	booking := models.Booking{
		ID:            uuid.New(),
		UserID:        takerID,
		ServiceID:     in.ServiceID,
		ProviderID:    providerID,
		RequestedDate: day,
		BookingTime:   now,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.bookings[booking.ID] = booking
	return &booking, nil
}

func (s *MemoryStore) CurrentBookings(_ context.Context, takerID uint) ([]BookingView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.takerBookings(takerID, models.ActiveStatuses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RequestedDate.Equal(out[j].RequestedDate) {
			return out[i].RequestedDate.Before(out[j].RequestedDate)
		}
		return out[i].BookingTime.After(out[j].BookingTime)
	})
	return out, nil
}

func (s *MemoryStore) ServiceHistory(_ context.Context, takerID uint) ([]BookingView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.takerBookings(takerID, []models.BookingStatus{models.StatusCompleted})
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) CancelBooking(_ context.Context, takerID uint, bookingID uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok || booking.UserID != takerID || booking.Status != models.StatusPending {
		return nil, ErrNotFound
	}
	delete(s.bookings, bookingID)
	return &booking, nil
}

func (s *MemoryStore) CreateContactMessage(_ context.Context, msg *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextContactID++
	msg.ID = s.nextContactID
	msg.CreatedAt = s.now()
	s.contacts = append(s.contacts, *msg)
	return nil
}

func (s *MemoryStore) BookingNotice(_ context.Context, bookingID uuid.UUID) (*BookingNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	notice := s.notice(booking)
	return &notice, nil
}

func (s *MemoryStore) NoticesDueOn(_ context.Context, day time.Time, status models.BookingStatus) ([]BookingNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day = dayOf(day)
	var due []models.Booking
	for _, b := range s.bookings {
		if b.Status == status && b.RequestedDate.Equal(day) {
			due = append(due, b)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].BookingTime.Before(due[j].BookingTime) })

	out := make([]BookingNotice, 0, len(due))
	for _, b := range due {
		out = append(out, s.notice(b))
	}
	return out, nil
}

func (s *MemoryStore) providerByUser(userID uint) (models.ServiceProvider, bool) {
	for _, p := range s.providers {
		if p.UserID == userID {
			return p, true
		}
	}
	return models.ServiceProvider{}, false
}

func (s *MemoryStore) serviceByNameCategory(name string, categoryID uint) (models.Service, bool) {
	var (
		found models.Service
		ok    bool
	)
	for _, svc := range s.services {
		if svc.ServiceName == name && svc.CategoryID == categoryID && (!ok || svc.ID < found.ID) {
			found, ok = svc, true
		}
	}
	return found, ok
}

func (s *MemoryStore) ownedLink(userID, providerServiceID uint) (models.ServiceProviderService, models.ServiceProvider, error) {
	provider, ok := s.providerByUser(userID)
	if !ok {
		return models.ServiceProviderService{}, models.ServiceProvider{}, ErrNotFound
	}
	link, ok := s.links[providerServiceID]
	if !ok || link.ProviderID != provider.ID {
		return models.ServiceProviderService{}, models.ServiceProvider{}, ErrNotFound
	}
	return link, provider, nil
}

func (s *MemoryStore) sortedLinks() []models.ServiceProviderService {
	out := make([]models.ServiceProviderService, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) listingView(link models.ServiceProviderService, provider models.ServiceProvider) ProviderServiceView {
	service := s.services[link.ServiceID]
	return ProviderServiceView{
		ProviderServiceID:  link.ID,
		ServiceID:          service.ID,
		ServiceName:        service.ServiceName,
		Description:        service.Description,
		Price:              service.Price,
		CategoryID:         service.CategoryID,
		CategoryName:       s.categories[service.CategoryID].CategoryName,
		City:               provider.City,
		Availability:       provider.Availability,
		Rating:             provider.Rating,
		TotalJobsCompleted: provider.TotalJobsCompleted,
	}
}

func (s *MemoryStore) catalogEntry(link models.ServiceProviderService) CatalogEntry {
	service := s.services[link.ServiceID]
	provider := s.providers[link.ProviderID]
	return CatalogEntry{
		ServiceID:          service.ID,
		ServiceName:        service.ServiceName,
		Description:        service.Description,
		Price:              service.Price,
		CategoryID:         service.CategoryID,
		CategoryName:       s.categories[service.CategoryID].CategoryName,
		ProviderID:         provider.ID,
		ProviderName:       s.users[provider.UserID].Name,
		City:               provider.City,
		Availability:       provider.Availability,
		Rating:             provider.Rating,
		TotalJobsCompleted: provider.TotalJobsCompleted,
	}
}

func (s *MemoryStore) jobs(userID uint, statuses []models.BookingStatus) []JobView {
	out := []JobView{}
	provider, ok := s.providerByUser(userID)
	if !ok {
		return out
	}
	for _, b := range s.bookings {
		if b.ProviderID != provider.ID || !hasStatus(statuses, b.Status) {
			continue
		}
		taker := s.users[b.UserID]
		out = append(out, JobView{
			BookingID:     b.ID,
			UserID:        b.UserID,
			UserName:      taker.Name,
			UserAddress:   taker.Address,
			ServiceID:     b.ServiceID,
			ServiceName:   s.services[b.ServiceID].ServiceName,
			Status:        b.Status,
			RequestedDate: b.RequestedDate,
			BookingTime:   b.BookingTime,
			UpdatedAt:     b.UpdatedAt,
		})
	}
	sortByID(out, func(v JobView) uuid.UUID { return v.BookingID })
	return out
}

func (s *MemoryStore) takerBookings(takerID uint, statuses []models.BookingStatus) []BookingView {
	out := []BookingView{}
	for _, b := range s.bookings {
		if b.UserID != takerID || !hasStatus(statuses, b.Status) {
			continue
		}
		provider := s.providers[b.ProviderID]
		out = append(out, BookingView{
			BookingID:     b.ID,
			ServiceID:     b.ServiceID,
			ServiceName:   s.services[b.ServiceID].ServiceName,
			ProviderID:    b.ProviderID,
			ProviderName:  s.users[provider.UserID].Name,
			RequestedDate: b.RequestedDate,
			BookingTime:   b.BookingTime,
			Status:        b.Status,
			PaymentStatus: b.PaymentStatus,
			CreatedAt:     b.CreatedAt,
			UpdatedAt:     b.UpdatedAt,
		})
	}
	sortByID(out, func(v BookingView) uuid.UUID { return v.BookingID })
	return out
}

func (s *MemoryStore) notice(b models.Booking) BookingNotice {
	taker := s.users[b.UserID]
	providerUser := s.users[s.providers[b.ProviderID].UserID]
	return BookingNotice{
		BookingID:     b.ID,
		ServiceName:   s.services[b.ServiceID].ServiceName,
		TakerName:     taker.Name,
		TakerEmail:    taker.Email,
		TakerAddress:  taker.Address,
		ProviderName:  providerUser.Name,
		ProviderEmail: providerUser.Email,
		RequestedDate: b.RequestedDate,
		Status:        b.Status,
	}
}

func hasStatus(statuses []models.BookingStatus, st models.BookingStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// sortByID gives map-derived slices a deterministic base order before the
// caller's stable sort.
func sortByID[T any](items []T, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]).String() < id(items[j]).String() })
}
