package handlers

import (
	"errors"
	"net/http"

	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/services"
	"trip-haven-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	gatewayService *services.GatewayService
}

func NewPaymentHandler(paymentService *services.PaymentService, gatewayService *services.GatewayService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		gatewayService: gatewayService,
	}
}

// ListGatewayOptions serves the checkout page's payment method list.
func (h *PaymentHandler) ListGatewayOptions(c *gin.Context) {
	options, err := h.gatewayService.ListOptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to load payment methods", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment methods retrieved", gin.H{
		"gateways": options,
		"count":    len(options),
	}))
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	resp, err := h.paymentService.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
		case errors.Is(err, services.ErrGatewayNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment gateway not found", err.Error()))
		case errors.Is(err, services.ErrBookingNotPayable),
			errors.Is(err, services.ErrPaymentInProgress):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment not possible", err.Error()))
		case errors.Is(err, services.ErrGatewayDisabled),
			errors.Is(err, services.ErrCurrencyUnsupported),
			errors.Is(err, services.ErrAmountOutOfRange):
			c.JSON(http.StatusUnprocessableEntity, utils.ErrorResponse("Gateway cannot take this charge", err.Error()))
		default:
			c.JSON(http.StatusBadGateway, utils.ErrorResponse("Payment initiation failed", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment initiated", resp))
}

// CompletePayment is the client's settlement claim; the outcome is decided by
// provider verification, not by this request.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req models.CompletePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
			return
		}
	}

	session, err := h.paymentService.CompletePayment(c.Request.Context(), sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment session not found", err.Error()))
		case errors.Is(err, services.ErrSessionClosed):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment session already closed", err.Error()))
		case errors.Is(err, services.ErrSessionExpired):
			c.JSON(http.StatusGone, utils.ErrorResponse("Payment session expired", err.Error()))
		case errors.Is(err, services.ErrChargeNotSettled):
			c.JSON(http.StatusAccepted, utils.ErrorResponse("Payment not settled yet", err.Error()))
		case errors.Is(err, services.ErrVerificationMismatch):
			c.JSON(http.StatusUnprocessableEntity, utils.ErrorResponse("Payment verification failed", err.Error()))
		default:
			c.JSON(http.StatusBadGateway, utils.ErrorResponse("Payment completion failed", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment completed", session))
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := h.paymentService.CancelPayment(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment session not found", err.Error()))
		case errors.Is(err, services.ErrSessionClosed):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment session already closed", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to cancel payment", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment cancelled", session))
}

func (h *PaymentHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := h.paymentService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment session not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve session", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Session retrieved", session))
}

func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req models.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid refund request", err.Error()))
		return
	}

	session, err := h.paymentService.RefundPayment(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
		case errors.Is(err, services.ErrNotRefundable):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment cannot be refunded", err.Error()))
		default:
			c.JSON(http.StatusBadGateway, utils.ErrorResponse("Refund processing failed", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Refund processed", session))
}
