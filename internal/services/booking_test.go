package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/kafka"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
)

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		DefaultCurrency: "USD",
		SessionTTL:      15 * time.Minute,
		ProviderTimeout: 5 * time.Second,
	}
}

func newBookingFixture(t *testing.T) (*BookingService, *storage.InMemoryStore, *models.CatalogItem) {
	t.Helper()
	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)

	item := &models.CatalogItem{
		Type:       models.ServiceTour,
		Title:      "Desert Safari",
		PriceAdult: 100,
		PriceChild: 50,
		TaxRate:    0.05,
		Enabled:    true,
	}
	require.NoError(t, store.SaveCatalogItem(item))

	svc := NewBookingService(store, producer, nil, nil, testPaymentConfig(), log)
	return svc, store, item
}

func tourRequest(item *models.CatalogItem) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		ServiceType:   string(item.Type),
		ServiceID:     item.ID,
		CustomerName:  "Sarah Ahmed",
		CustomerEmail: "sarah@example.com",
		CustomerPhone: "+971500000001",
		Adults:        2,
		Children:      1,
		TravelDate:    "2026-09-15",
	}
}

func TestCreateBookingSnapshotsPricing(t *testing.T) {
	svc, store, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	assert.Equal(t, 250.0, booking.BaseAmount)
	assert.Equal(t, 12.5, booking.TaxAmount)
	assert.Equal(t, 262.5, booking.FinalAmount)
	assert.Equal(t, "USD", booking.Currency)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.PaymentPending, booking.PaymentState)
	assert.True(t, strings.HasPrefix(booking.Reference, "BK"))

	// Catalog edits must never reprice a stored booking.
	item.PriceAdult = 999
	require.NoError(t, store.UpdateCatalogItem(item))

	stored, err := svc.GetBookingByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, 262.5, stored.FinalAmount)
}

func TestCreateBookingDiscountApplied(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	req := tourRequest(item)
	req.DiscountAmount = 62.5
	booking, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200.0, booking.FinalAmount)

	req2 := tourRequest(item)
	req2.CustomerEmail = "other@example.com"
	req2.DiscountAmount = 500
	_, err = svc.CreateBooking(context.Background(), req2)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestCreateBookingRequiresTravelDateForTours(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	req := tourRequest(item)
	req.TravelDate = ""
	_, err := svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrTravelDateRequired)
}

func TestCreateBookingSingleApplicantServices(t *testing.T) {
	svc, store, _ := newBookingFixture(t)

	visa := &models.CatalogItem{
		Type:       models.ServiceVisa,
		Title:      "30-Day Tourist Visa",
		PriceAdult: 120,
		Enabled:    true,
	}
	require.NoError(t, store.SaveCatalogItem(visa))

	// Omitted counts collapse to a single adult applicant.
	req := &models.CreateBookingRequest{
		ServiceType:   string(models.ServiceVisa),
		ServiceID:     visa.ID,
		CustomerName:  "Omar Khan",
		CustomerEmail: "omar@example.com",
		CustomerPhone: "+971500000002",
	}
	booking, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, booking.Adults)
	assert.Equal(t, 1, booking.Heads())
	assert.Equal(t, 120.0, booking.FinalAmount)

	req.CustomerEmail = "omar2@example.com"
	req.Adults = 2
	_, err = svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrSingleApplicantOnly)
}

func TestCreateBookingRejectsDisabledService(t *testing.T) {
	svc, store, item := newBookingFixture(t)

	item.Enabled = false
	require.NoError(t, store.UpdateCatalogItem(item))

	_, err := svc.CreateBooking(context.Background(), tourRequest(item))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

type fakeLock struct {
	acquired map[string]bool
}

func (f *fakeLock) AcquireSubmission(_ context.Context, key string) (bool, error) {
	if f.acquired[key] {
		return false, nil
	}
	if f.acquired == nil {
		f.acquired = map[string]bool{}
	}
	f.acquired[key] = true
	return true, nil
}

func (f *fakeLock) ReleaseSubmission(_ context.Context, key string) error {
	delete(f.acquired, key)
	return nil
}

func TestCreateBookingRejectsDoubleSubmit(t *testing.T) {
	_, store, item := newBookingFixture(t)
	log := logger.NewLogger()
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	svc := NewBookingService(store, producer, &fakeLock{acquired: map[string]bool{}}, nil, testPaymentConfig(), log)

	_, err = svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), tourRequest(item))
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestCreateBookingReleasesLockAfterRejectedAttempt(t *testing.T) {
	_, store, item := newBookingFixture(t)
	log := logger.NewLogger()
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	lock := &fakeLock{acquired: map[string]bool{}}
	svc := NewBookingService(store, producer, lock, nil, testPaymentConfig(), log)

	bad := tourRequest(item)
	bad.DiscountAmount = 9999
	_, err = svc.CreateBooking(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidDiscount)
	assert.Empty(t, lock.acquired)

	// Correcting the form must go through immediately, not after the TTL.
	_, err = svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)
}

func TestScaffoldTravelersDefaults(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	rows := svc.ScaffoldTravelers(booking)
	require.Len(t, rows, 3)
	assert.Equal(t, models.TravelerAdult, rows[0].Type)
	assert.Equal(t, "Mr", rows[0].Title)
	assert.Equal(t, models.TravelerAdult, rows[1].Type)
	assert.Equal(t, models.TravelerChild, rows[2].Type)
	assert.Equal(t, "Master", rows[2].Title)
}

func TestAttachTravelersEnforcesPartyCounts(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	short := &models.AttachTravelersRequest{Travelers: []models.TravelerInput{
		{Type: "adult", FirstName: "Sarah", LastName: "Ahmed"},
	}}
	_, err = svc.AttachTravelers(context.Background(), booking.Reference, short)
	assert.ErrorIs(t, err, ErrTravelerCountMismatch)

	full := &models.AttachTravelersRequest{Travelers: []models.TravelerInput{
		{Type: "adult", Title: "Mrs", FirstName: "Sarah", LastName: "Ahmed"},
		{Type: "adult", Title: "Mr", FirstName: "Tariq", LastName: "Ahmed"},
		{Type: "child", Title: "Master", FirstName: "Zaid", LastName: "Ahmed", DateOfBirth: "2018-03-02"},
	}}
	travelers, err := svc.AttachTravelers(context.Background(), booking.Reference, full)
	require.NoError(t, err)
	assert.Len(t, travelers, 3)
	require.NotNil(t, travelers[2].DateOfBirth)
	assert.Equal(t, 2018, travelers[2].DateOfBirth.Year())
}

func TestUpdateStatusGuardsLifecycle(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	// A pending booking cannot jump straight to completed.
	_, err = svc.UpdateStatus(context.Background(), booking.Reference,
		&models.UpdateBookingStatusRequest{Action: "complete"})
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	updated, err := svc.UpdateStatus(context.Background(), booking.Reference,
		&models.UpdateBookingStatusRequest{Action: "confirm"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)

	updated, err = svc.UpdateStatus(context.Background(), booking.Reference,
		&models.UpdateBookingStatusRequest{Action: "complete"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)

	// Completed is terminal.
	_, err = svc.UpdateStatus(context.Background(), booking.Reference,
		&models.UpdateBookingStatusRequest{Action: "cancel"})
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestUpdateStatusRecordsAdminNotesAndPayment(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	notes := "customer paid cash at office"
	paid := string(models.PaymentCompleted)
	updated, err := svc.UpdateStatus(context.Background(), booking.Reference,
		&models.UpdateBookingStatusRequest{Action: "confirm", AdminNotes: &notes, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.AdminNotes)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentState)
}

func TestExportCSV(t *testing.T) {
	svc, _, item := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), tourRequest(item))
	require.NoError(t, err)

	data, err := svc.ExportCSV(context.Background(), models.BookingFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "reference,service_type"))
	assert.Contains(t, lines[1], booking.Reference)
	assert.Contains(t, lines[1], "262.50")
}
