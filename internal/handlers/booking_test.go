package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/kafka"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/services"
	"trip-haven-backend/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.InMemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)

	cfg := config.PaymentConfig{DefaultCurrency: "USD", SessionTTL: 15 * time.Minute, ProviderTimeout: 5 * time.Second}
	bookingService := services.NewBookingService(store, producer, nil, nil, cfg, log)
	bookingHandler := NewBookingHandler(bookingService)

	router := gin.New()
	router.POST("/api/v1/bookings", bookingHandler.CreateBooking)
	router.GET("/api/v1/bookings/:reference", bookingHandler.GetBooking)
	router.POST("/api/v1/bookings/:reference/travelers", bookingHandler.AttachTravelers)
	router.PUT("/api/v1/admin/bookings/:reference/status", bookingHandler.UpdateStatus)
	return router, store
}

func seedTour(t *testing.T, store *storage.InMemoryStore) *models.CatalogItem {
	t.Helper()
	item := &models.CatalogItem{
		Type: models.ServiceTour, Title: "Desert Safari",
		PriceAdult: 100, PriceChild: 50, TaxRate: 0.05, Enabled: true,
	}
	require.NoError(t, store.SaveCatalogItem(item))
	return item
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBooking(t *testing.T, w *httptest.ResponseRecorder) *models.Booking {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    *models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func TestCreateBookingEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	item := seedTour(t, store)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"service_type":   "tour",
		"service_id":     item.ID,
		"customer_name":  "Sarah Ahmed",
		"customer_email": "sarah@example.com",
		"customer_phone": "+971500000001",
		"adults":         2,
		"children":       1,
		"travel_date":    "2026-09-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	booking := decodeBooking(t, w)
	assert.Equal(t, 262.5, booking.FinalAmount)
	assert.NotEmpty(t, booking.Reference)

	got := doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+booking.Reference, nil)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	router, store := newTestRouter(t)
	item := seedTour(t, store)

	// Missing required customer fields fails binding.
	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"service_type": "tour",
		"service_id":   item.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown reference is a 404.
	got := doJSON(t, router, http.MethodGet, "/api/v1/bookings/BK000000000000000", nil)
	assert.Equal(t, http.StatusNotFound, got.Code)
}

func TestAttachTravelersEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	item := seedTour(t, store)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"service_type":   "tour",
		"service_id":     item.ID,
		"customer_name":  "Sarah Ahmed",
		"customer_email": "sarah@example.com",
		"customer_phone": "+971500000001",
		"adults":         1,
		"travel_date":    "2026-09-15",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	booking := decodeBooking(t, w)

	short := doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+booking.Reference+"/travelers", gin.H{
		"travelers": []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, short.Code)

	ok := doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+booking.Reference+"/travelers", gin.H{
		"travelers": []gin.H{
			{"type": "adult", "title": "Mrs", "first_name": "Sarah", "last_name": "Ahmed"},
		},
	})
	assert.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
}

func TestUpdateStatusEndpointRejectsIllegalTransition(t *testing.T) {
	router, store := newTestRouter(t)
	item := seedTour(t, store)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"service_type":   "tour",
		"service_id":     item.ID,
		"customer_name":  "Sarah Ahmed",
		"customer_email": "sarah@example.com",
		"customer_phone": "+971500000001",
		"adults":         1,
		"travel_date":    "2026-09-15",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	booking := decodeBooking(t, w)

	complete := doJSON(t, router, http.MethodPut, "/api/v1/admin/bookings/"+booking.Reference+"/status", gin.H{
		"action": "complete",
	})
	assert.Equal(t, http.StatusConflict, complete.Code)

	confirm := doJSON(t, router, http.MethodPut, "/api/v1/admin/bookings/"+booking.Reference+"/status", gin.H{
		"action": "confirm",
	})
	assert.Equal(t, http.StatusOK, confirm.Code)
	assert.Equal(t, models.BookingConfirmed, decodeBooking(t, confirm).Status)
}
