package storage

import (
	"sort"
	"strings"
	"sync"

	"trip-haven-backend/internal/models"
)

// InMemoryStore backs unit tests and mock-mode runs. Same transition guards
// as the MySQL store.
type InMemoryStore struct {
	mutex sync.RWMutex

	bookings  map[int64]*models.Booking
	travelers map[int64][]models.Traveler
	gateways  map[int64]*models.PaymentGateway
	sessions  map[string]*models.PaymentSession
	catalog   map[int64]*models.CatalogItem

	nextBookingID int64
	nextGatewayID int64
	nextCatalogID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bookings:  make(map[int64]*models.Booking),
		travelers: make(map[int64][]models.Traveler),
		gateways:  make(map[int64]*models.PaymentGateway),
		sessions:  make(map[string]*models.PaymentSession),
		catalog:   make(map[int64]*models.CatalogItem),
	}
}

func (s *InMemoryStore) SaveBooking(b *models.Booking) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.bookings {
		if existing.Reference == b.Reference {
			return ErrDuplicateReference
		}
	}

	s.nextBookingID++
	b.ID = s.nextBookingID
	clone := *b
	s.bookings[b.ID] = &clone
	return nil
}

func (s *InMemoryStore) GetBooking(id int64) (*models.Booking, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	b, exists := s.bookings[id]
	if !exists {
		return nil, ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *InMemoryStore) GetBookingByReference(reference string) (*models.Booking, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, b := range s.bookings {
		if b.Reference == reference {
			clone := *b
			return &clone, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (s *InMemoryStore) ListBookings(filter models.BookingFilter, limit, offset int) ([]*models.Booking, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var all []*models.Booking
	for _, b := range s.bookings {
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		if filter.PaymentState != "" && string(b.PaymentState) != filter.PaymentState {
			continue
		}
		if filter.ServiceType != "" && string(b.ServiceType) != filter.ServiceType {
			continue
		}
		if filter.From != nil && b.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.CreatedAt.Before(*filter.To) {
			continue
		}
		clone := *b
		all = append(all, &clone)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) UpdateBookingStatus(id int64, status models.BookingStatus) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, exists := s.bookings[id]
	if !exists {
		return ErrBookingNotFound
	}
	if !ValidBookingTransition(b.Status, status) {
		return ErrInvalidTransition
	}
	b.Status = status
	return nil
}

func (s *InMemoryStore) UpdatePaymentState(id int64, state models.PaymentState) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, exists := s.bookings[id]
	if !exists {
		return ErrBookingNotFound
	}
	if !ValidPaymentTransition(b.PaymentState, state) {
		return ErrInvalidTransition
	}
	b.PaymentState = state
	return nil
}

func (s *InMemoryStore) UpdatePaymentTrace(id int64, gateway, paymentRef, rawResponse string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, exists := s.bookings[id]
	if !exists {
		return ErrBookingNotFound
	}
	b.GatewayName = gateway
	b.PaymentReference = paymentRef
	b.GatewayResponse = rawResponse
	return nil
}

func (s *InMemoryStore) UpdateAdminNotes(id int64, notes string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, exists := s.bookings[id]
	if !exists {
		return ErrBookingNotFound
	}
	b.AdminNotes = notes
	return nil
}

func (s *InMemoryStore) SaveTravelers(bookingID int64, travelers []models.Traveler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.bookings[bookingID]; !exists {
		return ErrBookingNotFound
	}
	for i := range travelers {
		travelers[i].BookingID = bookingID
		travelers[i].ID = int64(len(s.travelers[bookingID]) + i + 1)
	}
	s.travelers[bookingID] = append(s.travelers[bookingID], travelers...)
	return nil
}

func (s *InMemoryStore) GetTravelers(bookingID int64) ([]models.Traveler, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]models.Traveler(nil), s.travelers[bookingID]...), nil
}

func (s *InMemoryStore) ListGateways() ([]*models.PaymentGateway, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var gateways []*models.PaymentGateway
	for _, g := range s.gateways {
		clone := *g
		gateways = append(gateways, &clone)
	}
	sort.Slice(gateways, func(i, j int) bool {
		if gateways[i].Priority != gateways[j].Priority {
			return gateways[i].Priority < gateways[j].Priority
		}
		return gateways[i].Name < gateways[j].Name
	})
	return gateways, nil
}

func (s *InMemoryStore) GetGatewayByName(name string) (*models.PaymentGateway, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, g := range s.gateways {
		if strings.EqualFold(g.Name, name) {
			clone := *g
			return &clone, nil
		}
	}
	return nil, ErrGatewayNotFound
}

func (s *InMemoryStore) SaveGateway(g *models.PaymentGateway) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextGatewayID++
	g.ID = s.nextGatewayID
	clone := *g
	s.gateways[g.ID] = &clone
	return nil
}

func (s *InMemoryStore) UpdateGateway(g *models.PaymentGateway) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.gateways[g.ID]; !exists {
		return ErrGatewayNotFound
	}
	clone := *g
	s.gateways[g.ID] = &clone
	return nil
}

func (s *InMemoryStore) DeleteGateway(id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.gateways[id]; !exists {
		return ErrGatewayNotFound
	}
	delete(s.gateways, id)
	return nil
}

func (s *InMemoryStore) SaveSession(sess *models.PaymentSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clone := *sess
	s.sessions[sess.SessionID] = &clone
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.PaymentSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *InMemoryStore) UpdateSession(sess *models.PaymentSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.sessions[sess.SessionID]; !exists {
		return ErrSessionNotFound
	}
	clone := *sess
	s.sessions[sess.SessionID] = &clone
	return nil
}

func (s *InMemoryStore) GetLatestSessionByBooking(bookingID int64) (*models.PaymentSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var latest *models.PaymentSession
	for _, sess := range s.sessions {
		if sess.BookingID != bookingID {
			continue
		}
		if latest == nil || sess.CreatedAt.After(latest.CreatedAt) {
			latest = sess
		}
	}
	if latest == nil {
		return nil, ErrSessionNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *InMemoryStore) SaveCatalogItem(item *models.CatalogItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextCatalogID++
	item.ID = s.nextCatalogID
	clone := *item
	s.catalog[item.ID] = &clone
	return nil
}

func (s *InMemoryStore) GetCatalogItem(id int64) (*models.CatalogItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.catalog[id]
	if !exists {
		return nil, ErrCatalogItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *InMemoryStore) ListCatalogItems(serviceType string) ([]*models.CatalogItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var items []*models.CatalogItem
	for _, item := range s.catalog {
		if serviceType != "" && string(item.Type) != serviceType {
			continue
		}
		clone := *item
		items = append(items, &clone)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return items, nil
}

func (s *InMemoryStore) UpdateCatalogItem(item *models.CatalogItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.catalog[item.ID]; !exists {
		return ErrCatalogItemNotFound
	}
	clone := *item
	s.catalog[item.ID] = &clone
	return nil
}

func (s *InMemoryStore) DeleteCatalogItem(id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.catalog[id]; !exists {
		return ErrCatalogItemNotFound
	}
	delete(s.catalog, id)
	return nil
}
