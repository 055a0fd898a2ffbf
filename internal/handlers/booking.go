package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/services"
	"trip-haven-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateSubmission):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Duplicate submission", err.Error()))
		case errors.Is(err, services.ErrServiceUnavailable):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Service not available", err.Error()))
		case errors.Is(err, services.ErrInvalidServiceType),
			errors.Is(err, services.ErrEmptyParty),
			errors.Is(err, services.ErrSingleApplicantOnly),
			errors.Is(err, services.ErrTravelDateRequired),
			errors.Is(err, services.ErrInvalidDiscount):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create booking", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Booking created", booking))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	reference := c.Param("reference")

	booking, err := h.bookingService.GetBookingByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve booking", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking retrieved", booking))
}

// GetTravelerScaffold returns pre-filled placeholder rows for the traveler
// form, one per head in the party.
func (h *BookingHandler) GetTravelerScaffold(c *gin.Context) {
	reference := c.Param("reference")

	booking, err := h.bookingService.GetBookingByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve booking", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Traveler scaffold", h.bookingService.ScaffoldTravelers(booking)))
}

func (h *BookingHandler) AttachTravelers(c *gin.Context) {
	reference := c.Param("reference")

	var req models.AttachTravelersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	travelers, err := h.bookingService.AttachTravelers(c.Request.Context(), reference, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
		case errors.Is(err, services.ErrTravelerCountMismatch):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Traveler rows do not match the party", err.Error()))
		default:
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Failed to attach travelers", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Travelers attached", travelers))
}

func (h *BookingHandler) GetTravelers(c *gin.Context) {
	reference := c.Param("reference")

	travelers, err := h.bookingService.GetTravelers(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve travelers", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Travelers retrieved", travelers))
}

// ListBookings serves the admin booking list with optional filters.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid filter", err.Error()))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list bookings", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bookings retrieved", gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	}))
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	reference := c.Param("reference")

	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), reference, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
		case errors.Is(err, services.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown action", err.Error()))
		case errors.Is(err, services.ErrTransitionNotAllowed):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Transition not allowed", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update booking", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking updated", booking))
}

// Notify re-sends a lifecycle email from the admin screen.
func (h *BookingHandler) Notify(c *gin.Context) {
	reference := c.Param("reference")

	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	emailType := models.EmailType(req.EmailType)
	switch emailType {
	case models.EmailConfirmation, models.EmailReminder, models.EmailCancellation:
	default:
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown email type", req.EmailType))
		return
	}

	if err := h.bookingService.Notify(c.Request.Context(), reference, emailType); err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to send email", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Email sent", nil))
}

// ExportBookings streams the filtered list as a CSV download.
func (h *BookingHandler) ExportBookings(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid filter", err.Error()))
		return
	}

	data, err := h.bookingService.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to export bookings", err.Error()))
		return
	}

	filename := fmt.Sprintf("bookings-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func bookingFilterFromQuery(c *gin.Context) (models.BookingFilter, error) {
	filter := models.BookingFilter{
		Status:       c.Query("status"),
		PaymentState: c.Query("payment_status"),
		ServiceType:  c.Query("service_type"),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, fmt.Errorf("invalid to date: %w", err)
		}
		filter.To = &t
	}
	return filter, nil
}
