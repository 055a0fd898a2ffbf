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

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListItems is public: the storefront reads the catalog from here.
func (h *CatalogHandler) ListItems(c *gin.Context) {
	items, err := h.catalogService.ListItems(c.Request.Context(), c.Query("type"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidServiceType) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown service type", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list catalog", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Catalog retrieved", gin.H{
		"items": items,
		"count": len(items),
	}))
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid item id", err.Error()))
		return
	}

	item, err := h.catalogService.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrCatalogItemNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Catalog item not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve item", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item retrieved", item))
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req models.CatalogUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidServiceType) || errors.Is(err, services.ErrBadImportRow) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create item", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Item created", item))
}

func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid item id", err.Error()))
		return
	}

	var req models.CatalogUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	item, err := h.catalogService.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCatalogItemNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Catalog item not found", err.Error()))
		case errors.Is(err, services.ErrInvalidServiceType), errors.Is(err, services.ErrBadImportRow):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update item", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item updated", item))
}

func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid item id", err.Error()))
		return
	}

	if err := h.catalogService.DeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrCatalogItemNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Catalog item not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete item", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item deleted", nil))
}

// ImportItems ingests a CSV catalog sheet uploaded as multipart form data.
func (h *CatalogHandler) ImportItems(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("CSV file is required", err.Error()))
		return
	}
	defer file.Close()

	result, err := h.catalogService.ImportCSV(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Import failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Import finished", result))
}
