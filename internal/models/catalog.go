package models

import (
	"time"
)

// CatalogItem is a sellable service (tour, package, visa, attraction ticket,
// OK-to-board clearance or airport transfer). Bookings snapshot the title and
// prices at creation time, so edits here never touch historical bookings.
type CatalogItem struct {
	ID          int64       `json:"id"`
	Type        ServiceType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`

	PriceAdult  float64 `json:"price_adult"`
	PriceChild  float64 `json:"price_child"`
	PriceInfant float64 `json:"price_infant"`
	TaxRate     float64 `json:"tax_rate"`

	Highlights []string `json:"highlights,omitempty"`
	Enabled    bool     `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CatalogUpsertRequest struct {
	Type        string  `json:"type" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	PriceAdult  float64 `json:"price_adult"`
	PriceChild  float64 `json:"price_child"`
	PriceInfant float64 `json:"price_infant"`
	TaxRate     float64 `json:"tax_rate"`

	Highlights []string `json:"highlights,omitempty"`
	Enabled    bool     `json:"enabled"`
}
