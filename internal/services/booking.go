package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/kafka"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/pricing"
	"trip-haven-backend/internal/storage"
	"trip-haven-backend/internal/utils"
)

var (
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInvalidServiceType    = errors.New("invalid service type")
	ErrServiceUnavailable    = errors.New("service is not available for booking")
	ErrEmptyParty            = errors.New("at least one traveler is required")
	ErrSingleApplicantOnly   = errors.New("this service accepts exactly one applicant")
	ErrTravelDateRequired    = errors.New("travel date is required for this service")
	ErrInvalidDiscount       = errors.New("discount exceeds booking total")
	ErrDuplicateSubmission   = errors.New("identical booking submitted moments ago")
	ErrTravelerCountMismatch = errors.New("traveler rows do not match the party counts")
	ErrInvalidAction         = errors.New("unknown booking action")
	ErrTransitionNotAllowed  = errors.New("booking state does not allow this transition")
)

// SubmitLock guards against double form submission. Implemented by the Redis
// wrapper; a nil-safe no-op is used when Redis is not configured.
type SubmitLock interface {
	AcquireSubmission(ctx context.Context, key string) (bool, error)
	ReleaseSubmission(ctx context.Context, key string) error
}

// Notifier sends lifecycle emails for a booking.
type Notifier interface {
	SendBookingEmail(b *models.Booking, emailType models.EmailType) error
}

// BookingService owns the booking lifecycle: creation with pricing snapshot,
// traveler collection, admin transitions and reporting.
type BookingService struct {
	store    storage.Store
	producer *kafka.Producer
	lock     SubmitLock
	notifier Notifier
	cfg      config.PaymentConfig
	log      *logger.Logger
}

func NewBookingService(store storage.Store, producer *kafka.Producer, lock SubmitLock, notifier Notifier, cfg config.PaymentConfig, log *logger.Logger) *BookingService {
	return &BookingService{
		store:    store,
		producer: producer,
		lock:     lock,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// CreateBooking validates the request, snapshots catalog pricing into a new
// booking row and publishes booking.created. The stored amounts never change
// when the catalog is edited later.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	serviceType := models.ServiceType(req.ServiceType)
	if !serviceType.Valid() {
		return nil, ErrInvalidServiceType
	}

	adults, children, infants := req.Adults, req.Children, req.Infants
	if serviceType.SingleTraveler() {
		// Visa and OK-to-board applications are filed per person.
		if adults == 0 && children == 0 && infants == 0 {
			adults = 1
		} else if adults+children+infants != 1 {
			return nil, ErrSingleApplicantOnly
		}
	}
	if adults+children+infants <= 0 {
		return nil, ErrEmptyParty
	}
	if adults < 0 || children < 0 || infants < 0 {
		return nil, ErrEmptyParty
	}

	var travelDate *time.Time
	if req.TravelDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TravelDate)
		if err != nil {
			return nil, fmt.Errorf("invalid travel_date: %w", err)
		}
		travelDate = &parsed
	}
	if serviceType.NeedsSchedule() && travelDate == nil {
		return nil, ErrTravelDateRequired
	}

	// Double-submit guard: the same customer re-posting the same service
	// within the lock TTL gets rejected instead of a second booking.
	lockKey := fmt.Sprintf("%s:%s:%d", strings.ToLower(req.CustomerEmail), req.ServiceType, req.ServiceID)
	lockHeld := false
	if s.lock != nil {
		acquired, err := s.lock.AcquireSubmission(ctx, lockKey)
		if err != nil {
			s.log.Warn("BOOKING", fmt.Sprintf("Submission lock unavailable, continuing without guard: %v", err))
		} else if !acquired {
			s.log.LogSecurity("DOUBLE_SUBMIT", fmt.Sprintf("Rejected duplicate submission from %s for service %d",
				req.CustomerEmail, req.ServiceID))
			return nil, ErrDuplicateSubmission
		} else {
			lockHeld = true
		}
	}
	// A rejected attempt must not lock the customer out for the full TTL;
	// only a persisted booking keeps the guard up.
	persisted := false
	defer func() {
		if lockHeld && !persisted {
			if err := s.lock.ReleaseSubmission(ctx, lockKey); err != nil {
				s.log.Warn("BOOKING", fmt.Sprintf("Failed to release submission lock %s: %v", lockKey, err))
			}
		}
	}()

	item, err := s.store.GetCatalogItem(req.ServiceID)
	if err != nil {
		if errors.Is(err, storage.ErrCatalogItemNotFound) {
			return nil, ErrServiceUnavailable
		}
		return nil, fmt.Errorf("failed to load catalog item: %w", err)
	}
	if !item.Enabled || item.Type != serviceType {
		return nil, ErrServiceUnavailable
	}

	quote, err := pricing.Calculate(adults, children, infants,
		item.PriceAdult, item.PriceChild, item.PriceInfant, item.TaxRate)
	if err != nil {
		return nil, err
	}
	if req.DiscountAmount < 0 || req.DiscountAmount > quote.Total {
		return nil, ErrInvalidDiscount
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	booking := &models.Booking{
		ServiceType:     serviceType,
		ServiceID:       item.ID,
		ServiceTitle:    item.Title,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Adults:          adults,
		Children:        children,
		Infants:         infants,
		BaseAmount:      quote.Base,
		TaxAmount:       quote.Tax,
		DiscountAmount:  req.DiscountAmount,
		FinalAmount:     quote.Total - req.DiscountAmount,
		Currency:        currency,
		TravelDate:      travelDate,
		TravelTime:      req.TravelTime,
		PickupLocation:  req.PickupLocation,
		Status:          models.BookingPending,
		PaymentState:    models.PaymentPending,
		SpecialRequests: req.SpecialRequests,
	}

	// The reference has a storage-level unique index; regenerate on the
	// astronomically unlikely collision instead of failing the customer.
	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		booking.Reference = utils.GenerateBookingReference()
		err = s.store.SaveBooking(booking)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrDuplicateReference) && attempt < maxAttempts {
			s.log.Warn("BOOKING", fmt.Sprintf("Reference collision on %s, regenerating", booking.Reference))
			continue
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	persisted = true

	s.log.LogBooking("CREATE", booking.Reference, fmt.Sprintf("%s for %s, %d traveler(s), %.2f %s",
		item.Title, booking.CustomerEmail, booking.Heads(), booking.FinalAmount, booking.Currency))

	s.publishBookingEvent("booking.created", booking)
	return booking, nil
}

// ScaffoldTravelers returns placeholder rows matching the party counts, for
// the traveler form to pre-render. Nothing is persisted.
func (s *BookingService) ScaffoldTravelers(b *models.Booking) []models.Traveler {
	rows := make([]models.Traveler, 0, b.Heads())
	appendRows := func(n int, t models.TravelerType, title string) {
		for i := 0; i < n; i++ {
			rows = append(rows, models.Traveler{BookingID: b.ID, Type: t, Title: title})
		}
	}
	appendRows(b.Adults, models.TravelerAdult, "Mr")
	appendRows(b.Children, models.TravelerChild, "Master")
	appendRows(b.Infants, models.TravelerInfant, "Baby")
	return rows
}

// AttachTravelers stores the filled traveler details. The submitted rows must
// match the booking's party exactly, per category.
func (s *BookingService) AttachTravelers(ctx context.Context, reference string, req *models.AttachTravelersRequest) ([]models.Traveler, error) {
	booking, err := s.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	counts := map[models.TravelerType]int{}
	travelers := make([]models.Traveler, 0, len(req.Travelers))
	for _, in := range req.Travelers {
		t := models.TravelerType(in.Type)
		switch t {
		case models.TravelerAdult, models.TravelerChild, models.TravelerInfant:
		default:
			return nil, fmt.Errorf("%w: unknown traveler type %q", ErrTravelerCountMismatch, in.Type)
		}
		counts[t]++

		row := models.Traveler{
			BookingID:      booking.ID,
			Type:           t,
			Title:          in.Title,
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			Nationality:    in.Nationality,
			PassportNumber: in.PassportNumber,
		}
		if in.DateOfBirth != "" {
			dob, err := time.Parse("2006-01-02", in.DateOfBirth)
			if err != nil {
				return nil, fmt.Errorf("invalid date_of_birth: %w", err)
			}
			row.DateOfBirth = &dob
		}
		if in.PassportExpiry != "" {
			exp, err := time.Parse("2006-01-02", in.PassportExpiry)
			if err != nil {
				return nil, fmt.Errorf("invalid passport_expiry: %w", err)
			}
			row.PassportExpiry = &exp
		}
		travelers = append(travelers, row)
	}

	if counts[models.TravelerAdult] != booking.Adults ||
		counts[models.TravelerChild] != booking.Children ||
		counts[models.TravelerInfant] != booking.Infants {
		return nil, ErrTravelerCountMismatch
	}

	if err := s.store.SaveTravelers(booking.ID, travelers); err != nil {
		return nil, fmt.Errorf("failed to save travelers: %w", err)
	}
	s.log.LogBooking("TRAVELERS", booking.Reference, fmt.Sprintf("%d traveler(s) attached", len(travelers)))

	return s.store.GetTravelers(booking.ID)
}

func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.store.GetBookingByReference(reference)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func (s *BookingService) GetTravelers(ctx context.Context, reference string) ([]models.Traveler, error) {
	booking, err := s.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.store.GetTravelers(booking.ID)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter, limit, offset int) ([]*models.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListBookings(filter, limit, offset)
}

// UpdateStatus applies an admin lifecycle action. Transition legality is
// enforced in the store's guarded update, so a stale admin screen cannot
// push a completed booking back to confirmed.
func (s *BookingService) UpdateStatus(ctx context.Context, reference string, req *models.UpdateBookingStatusRequest) (*models.Booking, error) {
	booking, err := s.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var target models.BookingStatus
	switch models.BookingAction(req.Action) {
	case models.ActionConfirm:
		target = models.BookingConfirmed
	case models.ActionComplete:
		target = models.BookingCompleted
	case models.ActionCancel:
		target = models.BookingCancelled
	default:
		return nil, ErrInvalidAction
	}

	if err := s.store.UpdateBookingStatus(booking.ID, target); err != nil {
		if errors.Is(err, storage.ErrInvalidTransition) {
			return nil, ErrTransitionNotAllowed
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	booking.Status = target

	if req.PaymentStatus != nil {
		state := models.PaymentState(*req.PaymentStatus)
		if err := s.store.UpdatePaymentState(booking.ID, state); err != nil {
			if errors.Is(err, storage.ErrInvalidTransition) {
				return nil, ErrTransitionNotAllowed
			}
			return nil, fmt.Errorf("failed to update payment status: %w", err)
		}
		booking.PaymentState = state
	}

	if req.AdminNotes != nil {
		if err := s.store.UpdateAdminNotes(booking.ID, *req.AdminNotes); err != nil {
			return nil, fmt.Errorf("failed to update admin notes: %w", err)
		}
		booking.AdminNotes = *req.AdminNotes
	}

	s.log.LogBooking("STATUS", booking.Reference, fmt.Sprintf("Admin action %s, booking now %s", req.Action, target))
	s.publishBookingEvent("booking."+string(target), booking)
	return booking, nil
}

// Notify re-sends a lifecycle email on demand from the admin screen.
func (s *BookingService) Notify(ctx context.Context, reference string, emailType models.EmailType) error {
	booking, err := s.GetBookingByReference(ctx, reference)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		return errors.New("mailer not configured")
	}
	return s.notifier.SendBookingEmail(booking, emailType)
}

var exportHeader = []string{
	"reference", "service_type", "service_title", "customer_name", "customer_email",
	"customer_phone", "adults", "children", "infants", "final_amount", "currency",
	"travel_date", "status", "payment_status", "created_at",
}

// ExportCSV renders the filtered booking list as a CSV document for the
// back-office download.
func (s *BookingService) ExportCSV(ctx context.Context, filter models.BookingFilter) ([]byte, error) {
	bookings, err := s.store.ListBookings(filter, 10000, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for export: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		travelDate := ""
		if b.TravelDate != nil {
			travelDate = b.TravelDate.Format("2006-01-02")
		}
		record := []string{
			b.Reference, string(b.ServiceType), b.ServiceTitle, b.CustomerName, b.CustomerEmail,
			b.CustomerPhone, strconv.Itoa(b.Adults), strconv.Itoa(b.Children), strconv.Itoa(b.Infants),
			strconv.FormatFloat(b.FinalAmount, 'f', 2, 64), b.Currency,
			travelDate, string(b.Status), string(b.PaymentState), b.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.log.LogProcess("EXPORT", fmt.Sprintf("Exported %d bookings to CSV", len(bookings)))
	return buf.Bytes(), nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.producer == nil {
		return
	}
	event := &models.BookingEvent{
		Type:      eventType,
		Reference: booking.Reference,
		Booking:   booking,
		Timestamp: time.Now(),
	}
	if err := s.producer.PublishBookingEvent(event); err != nil {
		// Event delivery is best effort; the booking itself is already
		// durable in MySQL.
		s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, booking.Reference, err))
	}
}
