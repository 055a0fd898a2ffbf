package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStoreWithDB(db, logger.NewLogger()), mock
}

func sampleBooking() *models.Booking {
	now := time.Now()
	return &models.Booking{
		Reference:     "BK250829123456001",
		ServiceType:   models.ServiceTour,
		ServiceID:     7,
		ServiceTitle:  "Desert Safari",
		CustomerName:  "Aisha Rahman",
		CustomerEmail: "aisha@example.com",
		CustomerPhone: "+971500000000",
		Adults:        2,
		Children:      1,
		BaseAmount:    250,
		TaxAmount:     12.5,
		FinalAmount:   262.5,
		Currency:      "USD",
		Status:        models.BookingPending,
		PaymentState:  models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestSaveBookingAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))

	b := sampleBooking()
	require.NoError(t, store.SaveBooking(b))
	assert.Equal(t, int64(42), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBookingDuplicateReference(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.SaveBooking(sampleBooking())
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusGuardsTransitions(t *testing.T) {
	store, mock := newMockStore(t)

	// Terminal booking cannot be reopened; no UPDATE may be issued.
	mock.ExpectQuery("SELECT status FROM bookings").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

	err := store.UpdateBookingStatus(5, models.BookingConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusValidTransition(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT status FROM bookings").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateBookingStatus(5, models.BookingConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStateGuardsTransitions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT payment_status FROM bookings").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"payment_status"}).AddRow("completed"))

	err := store.UpdatePaymentState(9, models.PaymentPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBookingByReferenceNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE reference").
		WithArgs("BKmissing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetBookingByReference("BKmissing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
