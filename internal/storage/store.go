package storage

import (
	"trip-haven-backend/internal/models"
)

type Store interface {
	// Booking operations
	SaveBooking(b *models.Booking) error
	GetBooking(id int64) (*models.Booking, error)
	GetBookingByReference(reference string) (*models.Booking, error)
	ListBookings(filter models.BookingFilter, limit, offset int) ([]*models.Booking, error)
	// UpdateBookingStatus and UpdatePaymentState reject transitions outside
	// the allowed tables with ErrInvalidTransition.
	UpdateBookingStatus(id int64, status models.BookingStatus) error
	UpdatePaymentState(id int64, state models.PaymentState) error
	UpdatePaymentTrace(id int64, gateway, paymentRef, rawResponse string) error
	UpdateAdminNotes(id int64, notes string) error

	// Traveler operations
	SaveTravelers(bookingID int64, travelers []models.Traveler) error
	GetTravelers(bookingID int64) ([]models.Traveler, error)

	// Gateway configuration
	ListGateways() ([]*models.PaymentGateway, error)
	GetGatewayByName(name string) (*models.PaymentGateway, error)
	SaveGateway(g *models.PaymentGateway) error
	UpdateGateway(g *models.PaymentGateway) error
	DeleteGateway(id int64) error

	// Payment sessions
	SaveSession(s *models.PaymentSession) error
	GetSession(id string) (*models.PaymentSession, error)
	UpdateSession(s *models.PaymentSession) error
	GetLatestSessionByBooking(bookingID int64) (*models.PaymentSession, error)

	// Catalog
	SaveCatalogItem(item *models.CatalogItem) error
	GetCatalogItem(id int64) (*models.CatalogItem, error)
	ListCatalogItems(serviceType string) ([]*models.CatalogItem, error)
	UpdateCatalogItem(item *models.CatalogItem) error
	DeleteCatalogItem(id int64) error
}
