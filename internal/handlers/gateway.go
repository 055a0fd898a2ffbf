package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/services"
	"trip-haven-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// GatewayHandler exposes the admin CRUD surface for the gateway registry.
// Secrets go in through here but never come back out; the model hides them
// from serialization.
type GatewayHandler struct {
	gatewayService *services.GatewayService
}

func NewGatewayHandler(gatewayService *services.GatewayService) *GatewayHandler {
	return &GatewayHandler{
		gatewayService: gatewayService,
	}
}

func (h *GatewayHandler) CreateGateway(c *gin.Context) {
	var req models.GatewayUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	gateway, err := h.gatewayService.CreateGateway(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidProtocol) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown protocol", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create gateway", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Gateway created", gateway))
}

func (h *GatewayHandler) UpdateGateway(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid gateway id", err.Error()))
		return
	}

	var req models.GatewayUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	gateway, err := h.gatewayService.UpdateGateway(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGatewayNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Gateway not found", err.Error()))
		case errors.Is(err, services.ErrInvalidProtocol):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown protocol", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update gateway", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Gateway updated", gateway))
}

func (h *GatewayHandler) DeleteGateway(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid gateway id", err.Error()))
		return
	}

	if err := h.gatewayService.DeleteGateway(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrGatewayNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Gateway not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete gateway", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Gateway deleted", nil))
}
